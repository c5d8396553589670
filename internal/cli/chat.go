package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fennec-ai/fennec/pkg/assistant"
	"github.com/fennec-ai/fennec/pkg/users"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

const helpText = `Commands:
  /new              start a new conversation
  /clear            same as /new
  /history          list recent conversations
  /search <query>   search past conversations
  /memory           show saved memories
  /teach <trigger> => <response>   teach a canned reply
  /mood             show the assistant's mood
  /feel <emotion> <0-10>           set an emotion
  /users            list known users
  /whoami           show the active user
  /switch <name>    talk as a different user
  /quit             exit`

type chatLoop struct {
	bot *assistant.Assistant

	// pendingSwitch holds a detected but unconfirmed identity change.
	pendingSwitch string
}

func runChat() error {
	bot, err := openAssistant()
	if err != nil {
		return err
	}
	defer bot.Close()

	loop := &chatLoop{bot: bot}

	fmt.Println("🦊 Fennec ready. Type /help for commands.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := loop.handleCommand(line); quit {
				break
			}
			continue
		}

		loop.handleMessage(line)
	}

	return scanner.Err()
}

// handleCommand runs a slash command. Returns true on /quit.
func (c *chatLoop) handleCommand(line string) bool {
	ctx := context.Background()
	parts := strings.SplitN(line[1:], " ", 2)
	command := strings.ToLower(parts[0])
	arg := ""
	if len(parts) > 1 {
		arg = strings.TrimSpace(parts[1])
	}

	switch command {
	case "help":
		fmt.Println(helpText)

	case "new", "clear":
		id, err := c.bot.Sessions.StartNewSession(ctx)
		if err != nil {
			fmt.Println("error:", err)
			return false
		}
		fmt.Println("New conversation started:", id)

	case "history":
		conversations, err := c.bot.Sessions.Conversations(ctx)
		if err != nil {
			fmt.Println("error:", err)
			return false
		}
		for _, conv := range conversations {
			fmt.Printf("  %s  %s (%d turns, %s)\n",
				conv.ID, conv.Title, conv.TurnCount, conv.UpdatedAt.Format(time.DateTime))
		}

	case "search":
		if arg == "" {
			fmt.Println("usage: /search <query>")
			return false
		}
		matches, err := c.bot.Sessions.SearchHistory(ctx, arg)
		if err != nil {
			fmt.Println("error:", err)
			return false
		}
		if len(matches) == 0 {
			fmt.Println("no matches")
			return false
		}
		for _, m := range matches {
			fmt.Printf("  [%s] %s: %s\n", m.Title, m.Timestamp.Format(time.DateOnly), m.Content)
		}

	case "memory":
		c.showMemory(ctx)

	case "teach":
		trigger, response, ok := strings.Cut(arg, "=>")
		if !ok {
			fmt.Println("usage: /teach <trigger> => <response>")
			return false
		}
		if err := c.bot.Lessons.Teach(ctx, strings.TrimSpace(trigger), strings.TrimSpace(response)); err != nil {
			fmt.Println("error:", err)
			return false
		}
		fmt.Println("Learned. I'll answer that myself from now on.")

	case "mood":
		state := c.bot.Persona.State()
		fmt.Printf("happiness %.1f  sadness %.1f  anger %.1f  excitement %.1f\n",
			state.Happiness, state.Sadness, state.Anger, state.Excitement)
		fmt.Printf("humor %.1f  seriousness %.1f  friendliness %.1f  curiosity %.1f\n",
			state.Humor, state.Seriousness, state.Friendliness, state.Curiosity)
		fmt.Println("dominant:", c.bot.Persona.Dominant())

	case "feel":
		fields := strings.Fields(arg)
		if len(fields) != 2 {
			fmt.Println("usage: /feel <emotion> <0-10>")
			return false
		}
		value, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			fmt.Println("usage: /feel <emotion> <0-10>")
			return false
		}
		if err := c.bot.Persona.Set(fields[0], value, false); err != nil {
			fmt.Println("error:", err)
			return false
		}
		fmt.Printf("Feeling %s at %.1f now.\n", fields[0], value)

	case "users":
		entries, err := c.bot.Users.ListAll(ctx)
		if err != nil {
			fmt.Println("error:", err)
			return false
		}
		for _, e := range entries {
			fmt.Printf("  %s (last seen %s)\n", e.Name, e.LastSeen.Format(time.DateTime))
		}

	case "whoami":
		profile, err := c.bot.Users.Current(ctx)
		if err != nil {
			fmt.Println("I don't know you yet. Tell me your name!")
			return false
		}
		tier := users.RelationshipTier(profile.RelationshipLevel)
		fmt.Printf("%s (%s, level %d, %d interactions)\n",
			profile.Name, tier, profile.RelationshipLevel, profile.InteractionCount)

	case "switch":
		if arg == "" {
			fmt.Println("usage: /switch <name>")
			return false
		}
		c.switchUser(ctx, arg)

	case "quit", "exit":
		fmt.Println("Goodbye!")
		return true

	default:
		fmt.Println("unknown command, try /help")
	}

	return false
}

func (c *chatLoop) handleMessage(message string) {
	ctx := context.Background()

	if c.pendingSwitch != "" {
		if isAffirmative(message) {
			c.switchUser(ctx, c.pendingSwitch)
			c.pendingSwitch = ""
			return
		}
		c.pendingSwitch = ""
	}

	if name, ok := c.bot.Users.SuggestSwitch(ctx, message); ok {
		c.pendingSwitch = name
		fmt.Printf("🦊 Are you %s? Say yes to switch, or just keep chatting.\n", name)
	}

	chunks, err := c.bot.RespondStream(ctx, message)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Print("🦊 ")
	for chunk := range chunks {
		if chunk.Err != nil {
			fmt.Println("\nerror:", chunk.Err)
			return
		}
		fmt.Print(chunk.Content)
	}
	fmt.Println()
}

func (c *chatLoop) switchUser(ctx context.Context, name string) {
	profile, created, err := c.bot.Users.Switch(ctx, name)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	if created {
		fmt.Printf("Nice to meet you, %s! 🦊\n", profile.Name)
		return
	}
	fmt.Printf("Welcome back, %s!\n", profile.Name)
}

func (c *chatLoop) showMemory(ctx context.Context) {
	messages, err := c.bot.Sessions.EnhancedContext(ctx)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, m := range messages {
		if m.Role == "system" {
			fmt.Println(m.Content)
			return
		}
	}
	fmt.Println("no memories saved yet")
}

func isAffirmative(message string) bool {
	switch strings.ToLower(strings.TrimSpace(message)) {
	case "yes", "y", "yeah", "yep", "بله", "آره", "اره":
		return true
	}
	return false
}
