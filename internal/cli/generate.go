package cli

import (
	"fmt"
	"os"

	"github.com/Conceptual-Machines/lyrics-api/internal/models"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newGenerateCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate lyrics and print them as they stream in",
		Example: `lyricsctl generate --language English --genre "indie folk" \
  --description "leaving a small town" --emotion wistful --emotion hopeful --versions 2`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := buildRequest(v)
			if err != nil {
				return err
			}
			client := NewClient(v.GetString("server"))
			if err := client.Generate(cmd.Context(), req, cmd.OutOrStdout()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("language", "", "lyrics language (required)")
	flags.String("genre", "", "song genre (required)")
	flags.String("description", "", "what the song is about (required)")
	flags.StringSlice("emotion", nil, "emotional tag, repeatable")
	flags.String("previous-file", "", "file holding a previous draft to refine")
	flags.Int("versions", models.DefaultVersionCount, "number of versions to generate")
	flags.String("melody", "", "melody style hint")
	flags.String("harmony", "", "harmony type hint")
	flags.StringSlice("instrument", nil, "instrument hint, repeatable")
	flags.String("tempo", "", "tempo hint")

	for _, name := range []string{
		"language", "genre", "description", "emotion", "previous-file",
		"versions", "melody", "harmony", "instrument", "tempo",
	} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}

	return cmd
}

// buildRequest assembles a LyricsRequest from flags, env and config file.
// The server does the real validation.
func buildRequest(v *viper.Viper) (*models.LyricsRequest, error) {
	req := &models.LyricsRequest{
		Language:    v.GetString("language"),
		Genre:       v.GetString("genre"),
		Description: v.GetString("description"),
		Emotions:    v.GetStringSlice("emotion"),
		MusicalElements: models.MusicalElements{
			MelodyStyle: v.GetString("melody"),
			HarmonyType: v.GetString("harmony"),
			Instruments: v.GetStringSlice("instrument"),
			Tempo:       v.GetString("tempo"),
		},
	}

	if v.IsSet("versions") {
		n := v.GetInt("versions")
		req.VersionCount = &n
	}

	if path := v.GetString("previous-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read previous lyrics: %w", err)
		}
		previous := string(data)
		req.PreviousLyrics = &previous
	}

	return req, nil
}
