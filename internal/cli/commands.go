package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List everyone the assistant knows",
	RunE: func(cmd *cobra.Command, args []string) error {
		bot, err := openAssistant()
		if err != nil {
			return err
		}
		defer bot.Close()

		entries, err := bot.Users.ListAll(context.Background())
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("nobody yet")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%s\tfirst met %s\tlast seen %s\n",
				e.Name, e.CreatedAt.Format(time.DateOnly), e.LastSeen.Format(time.DateTime))
		}
		return nil
	},
}

var teachCmd = &cobra.Command{
	Use:   "teach <trigger> <response>",
	Short: "Teach a canned reply without starting a chat",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		bot, err := openAssistant()
		if err != nil {
			return err
		}
		defer bot.Close()

		if err := bot.Lessons.Teach(context.Background(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Println("learned")
		return nil
	},
}
