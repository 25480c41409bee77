package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter renders a Summary as a Markdown report.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the function used to translate labels.
func WithTranslator(t func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.translate = t
	}
}

// WithVersion sets the version shown in the footer.
func WithVersion(version string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = version
	}
}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{
		translate: func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements the Formatter interface.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t("Recording Summary"))

	fmt.Fprintf(&b, "| %s | %s |\n|---|---|\n", t("Item"), t("Value"))
	row(&b, t("Session Directory"), s.Session.RootDir)
	row(&b, t("Output Directory"), s.Session.OutputDir)
	row(&b, t("Sources"), fmt.Sprintf("%d", s.Session.Sources))
	row(&b, t("Frames"), fmt.Sprintf("%d", s.Session.TotalFrames))
	row(&b, t("Duration"), formatDuration(s.Session.Duration))
	row(&b, t("Slices Encoded"), fmt.Sprintf("%d", len(s.Slices)))
	row(&b, t("Slices Failed"), fmt.Sprintf("%d", s.Session.Failed(len(s.Slices))))
	row(&b, t("Total Size"), formatBytes(s.TotalFileSize()))
	if s.Session.Interrupted {
		row(&b, t("Interrupted"), t("Yes"))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## %s\n\n", t("Settings"))
	fmt.Fprintf(&b, "| %s | %s |\n|---|---|\n", t("Item"), t("Value"))
	row(&b, t("Max Slice Size"), formatBytes(int64(s.Settings.MaxSliceBytes)))
	if s.Settings.EncodeTimeout > 0 {
		row(&b, t("Encode Timeout"), s.Settings.EncodeTimeout.String())
	} else {
		row(&b, t("Encode Timeout"), t("None"))
	}
	if s.Settings.FFmpegPath != "" {
		row(&b, "ffmpeg", s.Settings.FFmpegPath)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## %s\n\n", t("Slices"))
	if len(s.Slices) == 0 {
		fmt.Fprintf(&b, "%s\n\n", t("No slices were encoded."))
	} else {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
			t("Slice"), t("File"), t("Resolution"), t("Frame Rate"), t("Duration"), t("Size"), t("Codec"))
		b.WriteString("|---:|---|---|---:|---:|---:|---|\n")
		for _, sl := range s.Slices {
			fmt.Fprintf(&b, "| %d | %s | %dx%d | %s | %d ms | %s | %s |\n",
				sl.ID, sl.Path, sl.Width, sl.Height, formatRate(sl.FrameRate, t), sl.DurationMs, formatBytes(sl.FileSize), orDash(sl.Codec))
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n\n")
	if f.version != "" {
		fmt.Fprintf(&b, "%s slicerec %s, %s\n", t("Generated by"), f.version, s.GeneratedAt.Format(time.RFC3339))
	} else {
		fmt.Fprintf(&b, "%s slicerec, %s\n", t("Generated by"), s.GeneratedAt.Format(time.RFC3339))
	}

	return b.String()
}

func row(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "| %s | %s |\n", label, value)
}

func formatRate(rate *int, t func(string) string) string {
	if rate == nil {
		return t("N/A")
	}
	return fmt.Sprintf("%d fps", *rate)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1f s", d.Seconds())
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 3; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(n)/float64(div), "KMGT"[exp])
}
