package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-fsrs/internal/client"
	"github.com/phrazzld/scry-fsrs/internal/config"
	"github.com/spf13/cobra"
)

const rootLongDesc string = `study runs spaced-repetition review sessions against a scry server.

The server address and access token come from client.base_url and
client.token in config.yaml, or SCRY_CLIENT_BASE_URL and SCRY_CLIENT_TOKEN.

Examples:
  study decks
  study add-deck "Spanish verbs"
  study add-card --deck 1b4e... --front hablar --back "to speak"
  study session --deck 1b4e...`

type rootCommander struct {
	client  *client.Client
	session *config.SessionConfig
}

func newRootCmd() *cobra.Command {
	cmder := &rootCommander{}
	cmd := &cobra.Command{
		Use:           "study",
		Short:         "Study flashcards from a scry server",
		Long:          rootLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.connect()
		},
	}
	cmd.AddCommand(
		newDecksCmd(cmder),
		newAddDeckCmd(cmder),
		newAddCardCmd(cmder),
		newSessionCmd(cmder),
	)
	return cmd
}

func (c *rootCommander) connect() error {
	clientCfg, sessionCfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	if clientCfg.Token == "" {
		return fmt.Errorf("no access token configured: set SCRY_CLIENT_TOKEN")
	}

	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	c.client, err = client.New(*clientCfg, client.WithLogger(log))
	if err != nil {
		return err
	}
	c.session = sessionCfg
	return nil
}

func newDecksCmd(root *rootCommander) *cobra.Command {
	return &cobra.Command{
		Use:   "decks",
		Short: "List your decks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			decks, err := root.client.ListDecks(cmd.Context())
			if err != nil {
				return err
			}
			if len(decks) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No decks yet. Create one with: study add-deck NAME")
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
			for _, d := range decks {
				fmt.Fprintf(w, "%s\t%s\t%s\n", d.ID, d.Name, d.Description)
			}
			return w.Flush()
		},
	}
}

type addDeckCommander struct {
	description string
}

func newAddDeckCmd(root *rootCommander) *cobra.Command {
	cmder := &addDeckCommander{}
	cmd := &cobra.Command{
		Use:   "add-deck NAME",
		Short: "Create a deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deck, err := root.client.CreateDeck(cmd.Context(), args[0], cmder.description)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Created deck %q (%s)\n", deck.Name, deck.ID)
			return err
		},
	}
	cmd.Flags().StringVarP(&cmder.description, "description", "d", "", "Deck description")
	return cmd
}

type addCardCommander struct {
	deckID string
	front  string
	back   string
	tags   []string
}

func newAddCardCmd(root *rootCommander) *cobra.Command {
	cmder := &addCardCommander{}
	cmd := &cobra.Command{
		Use:   "add-card",
		Short: "Add a card to a deck",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deckID, err := uuid.Parse(cmder.deckID)
			if err != nil {
				return fmt.Errorf("invalid deck ID %q: %w", cmder.deckID, err)
			}
			card, err := root.client.CreateCard(cmd.Context(), deckID, cmder.front, cmder.back, cmder.tags)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added card %s\n", card.ID)
			return err
		},
	}
	cmd.Flags().StringVar(&cmder.deckID, "deck", "", "Deck ID")
	cmd.Flags().StringVar(&cmder.front, "front", "", "Front of the card")
	cmd.Flags().StringVar(&cmder.back, "back", "", "Back of the card")
	cmd.Flags().StringSliceVar(&cmder.tags, "tag", nil, "Tag (repeatable)")
	for _, name := range []string{"deck", "front", "back"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

type sessionCommander struct {
	deckID string
}

func newSessionCmd(root *rootCommander) *cobra.Command {
	cmder := &sessionCommander{}
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Review the due cards of a deck",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deckID, err := uuid.Parse(cmder.deckID)
			if err != nil {
				return fmt.Errorf("invalid deck ID %q: %w", cmder.deckID, err)
			}
			s := &studySession{
				api:       root.client,
				threshold: root.session.RequeueThreshold,
				in:        cmd.InOrStdin(),
				out:       cmd.OutOrStdout(),
			}
			return s.run(cmd.Context(), deckID)
		},
	}
	cmd.Flags().StringVar(&cmder.deckID, "deck", "", "Deck ID")
	_ = cmd.MarkFlagRequired("deck")
	return cmd
}
