package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mnemolet/mnemolet/internal/adapters/driving/tui/styles"
	"github.com/mnemolet/mnemolet/internal/core/domain"
)

var cliStyles = styles.DefaultStyles()

func heading(text string) string {
	return cliStyles.Title.Render(text)
}

func muted(text string) string {
	return cliStyles.Muted.Render(text)
}

func statusMark(ok bool) string {
	if ok {
		return cliStyles.Success.Render("ok")
	}
	return cliStyles.Error.Render("down")
}

// streamAnswer prints content as it arrives and the sources once the stream
// completes. Returns the error carried by an error event.
func streamAnswer(cmd *cobra.Command, events <-chan domain.AnswerEvent) error {
	var streamErr error
	wroteContent := false
	for ev := range events {
		switch ev.Kind {
		case domain.EventContent:
			cmd.Print(ev.Text)
			wroteContent = true
		case domain.EventSources:
			if wroteContent {
				cmd.Println()
			}
			printSources(cmd, ev.Sources)
		case domain.EventError:
			if wroteContent {
				cmd.Println()
			}
			streamErr = ev.Err
		}
	}
	return streamErr
}

func printSources(cmd *cobra.Command, sources []domain.RetrievalResult) {
	if len(sources) == 0 {
		return
	}
	cmd.Println()
	cmd.Println(heading("Sources"))
	for _, s := range sources {
		cmd.Printf("  - %s %s\n", s.Path, muted(fmt.Sprintf("(%.3f)", s.Score)))
	}
}

// separator is the rule printed between chat turns.
var separator = cliStyles.Rule.Render("────────")
