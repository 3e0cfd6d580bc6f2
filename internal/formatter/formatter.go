// package formatter renders migration reports for CLI output (styled text,
// plain text, JSON)
package formatter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/crossfade/internal/models"
	"github.com/desertthunder/crossfade/internal/shared"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// ReportToText renders a migration report as plain text.
func ReportToText(report *models.MigrationReport) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Migration %s\n", report.ID))
	if report.DestinationPlaylistID != "" {
		buf.WriteString(fmt.Sprintf("Destination playlist: %s\n", report.DestinationPlaylistID))
	}
	buf.WriteString(fmt.Sprintf("Tracks processed: %d\n", report.TotalTracksProcessed))
	buf.WriteString(fmt.Sprintf("Videos added: %d\n", report.TotalVideosAdded))

	if len(report.UnmatchedTracks) > 0 {
		buf.WriteString(fmt.Sprintf("\nUnmatched (%d):\n", len(report.UnmatchedTracks)))
		for i, label := range report.UnmatchedTracks {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, label))
		}
	}

	if len(report.QuotaExceededTracks) > 0 {
		buf.WriteString(fmt.Sprintf("\nSkipped on quota (%d):\n", len(report.QuotaExceededTracks)))
		for i, label := range report.QuotaExceededTracks {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, label))
		}
	}

	if report.QuotaExceeded {
		buf.WriteString("\nThe destination search quota ran out during this run; re-run later to migrate the skipped tracks.\n")
	}

	return buf.Bytes()
}

// ReportToStyled renders a migration report with terminal styling.
func ReportToStyled(report *models.MigrationReport) string {
	var b strings.Builder

	b.WriteString(styles.title.Render("Migration Report"))
	b.WriteString("\n")
	if report.DestinationPlaylistID != "" {
		b.WriteString(fmt.Sprintf("Destination playlist: %s\n", styles.ok.Render(report.DestinationPlaylistID)))
	}
	b.WriteString(fmt.Sprintf("Added %s of %d tracks\n",
		styles.ok.Render(fmt.Sprintf("%d", report.TotalVideosAdded)),
		report.TotalTracksProcessed))

	if len(report.UnmatchedTracks) > 0 {
		b.WriteString(styles.warn.Render(fmt.Sprintf("Unmatched: %d", len(report.UnmatchedTracks))))
		b.WriteString("\n")
		for _, label := range report.UnmatchedTracks {
			b.WriteString(fmt.Sprintf("  • %s\n", label))
		}
	}

	if len(report.QuotaExceededTracks) > 0 {
		b.WriteString(styles.err.Render(fmt.Sprintf("Skipped on quota: %d", len(report.QuotaExceededTracks))))
		b.WriteString("\n")
		for _, label := range report.QuotaExceededTracks {
			b.WriteString(fmt.Sprintf("  • %s\n", label))
		}
		b.WriteString(styles.help.Render("Re-run after the quota resets to migrate the skipped tracks."))
		b.WriteString("\n")
	}

	return b.String()
}

// ReportToJSON generates a JSON representation of a migration report.
func ReportToJSON(report *models.MigrationReport, pretty bool) ([]byte, error) {
	return shared.MarshalJSON(report, pretty)
}

// PlaylistsToText renders the source playlist listing, one line per playlist.
func PlaylistsToText(playlists []models.Playlist) []byte {
	var buf bytes.Buffer

	if len(playlists) == 0 {
		buf.WriteString("No playlists found.\n")
		return buf.Bytes()
	}

	for _, p := range playlists {
		buf.WriteString(fmt.Sprintf("%s  %s (%d tracks)\n", p.ID, p.Name, p.TrackCount))
	}

	return buf.Bytes()
}

// HistoryToText renders a user's run history, one line per run.
func HistoryToText(records []models.MigrationRecord) []byte {
	var buf bytes.Buffer

	if len(records) == 0 {
		buf.WriteString("No migrations recorded.\n")
		return buf.Bytes()
	}

	for _, rec := range records {
		line := fmt.Sprintf("#%d %s %s: %d/%d added (%s)",
			rec.Sequence, rec.CreatedAt.Format("2006-01-02 15:04"),
			rec.TargetName, rec.VideosAdded, rec.TracksTotal, rec.Status)
		if rec.QuotaExceeded {
			line += " [quota]"
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes()
}
