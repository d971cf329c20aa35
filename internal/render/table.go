package render

import (
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/flemzord/pigram/internal/clone"
)

// Dialogs writes the dialog list as a table.
func Dialogs(out io.Writer, dialogs []clone.Dialog) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"ID", "Title", "Type", "Username"})
	for _, d := range dialogs {
		username := ""
		if d.Username != "" {
			username = "@" + d.Username
		}
		t.AppendRow(table.Row{strconv.FormatInt(d.Peer.ID, 10), d.Peer.Title, string(d.Kind), username})
	}
	t.AppendFooter(table.Row{"", humanize.Comma(int64(len(dialogs))) + " chats", "", ""})
	t.Render()
}

// Result writes the summary of a finished run.
func Result(out io.Writer, res clone.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendRows([]table.Row{
		{"Source", peerLabel(res.Source)},
		{"Target", peerLabel(res.Target)},
		{"State", res.State.String()},
		{"Resumed from", res.ResumedFrom},
		{"Last message id", res.LastID},
		{"Processed", humanize.Comma(int64(res.Processed))},
		{"Errors", humanize.Comma(int64(res.Errors))},
	})
	t.Render()
}

func peerLabel(p clone.Peer) string {
	if p.Title == "" {
		return strconv.FormatInt(p.ID, 10)
	}
	return p.Title + " (" + strconv.FormatInt(p.ID, 10) + ")"
}
