package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fennec-ai/fennec/pkg/store"
)

func TestDeriveTitle_FirstFiveWords(t *testing.T) {
	title := store.DeriveTitle("can you help me write a parser in Go please")
	assert.Equal(t, "can you help me write", title)
}

func TestDeriveTitle_ShortContentKeepsDefault(t *testing.T) {
	// Ten runes or fewer is not enough for a meaningful title.
	assert.Equal(t, store.DefaultTitle, store.DeriveTitle("سلام"))
	assert.Equal(t, store.DefaultTitle, store.DeriveTitle("hi there"))
	assert.Equal(t, store.DefaultTitle, store.DeriveTitle(""))
}

func TestDeriveTitle_PersianContent(t *testing.T) {
	title := store.DeriveTitle("سلام چطوری؟ امروز چه خبر از دنیا")
	assert.Equal(t, "سلام چطوری؟ امروز چه خبر", title)
}

func TestDeriveTitle_FewerThanFiveWords(t *testing.T) {
	title := store.DeriveTitle("یه سوال مهم دارم")
	assert.Equal(t, "یه سوال مهم دارم", title)
}
