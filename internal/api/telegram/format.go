package telegram

import (
	"errors"
	"fmt"
	"strings"

	"ripeness-detector/internal/domain/entity"
)

func formatReport(r *entity.RipenessReport) string {
	var b strings.Builder
	b.WriteString("✅ Analysis complete!\n\n")
	fmt.Fprintf(&b, "🍌 Total bananas: %d\n", r.TotalCount)
	fmt.Fprintf(&b, "🟢 Unripe: %d\n", r.UnripeCount)
	fmt.Fprintf(&b, "🟡 Ripe: %d\n", r.RipeCount)
	fmt.Fprintf(&b, "🟤 Overripe: %d\n", r.OverripeCount)
	if d := strings.TrimSpace(r.DetailedAnalysis); d != "" {
		b.WriteString("\n📝 Detailed analysis:\n")
		b.WriteString(d)
	}
	return b.String()
}

func formatError(err error) string {
	switch {
	case errors.Is(err, entity.ErrNoImage):
		return "📸 No image received, please send a photo."
	case errors.Is(err, entity.ErrDecode):
		return "⚠️ Could not read the image. Try another photo (JPEG or PNG)."
	case errors.Is(err, entity.ErrConfiguration):
		return "⚙️ The vision service is not configured. Please contact the bot owner."
	case errors.Is(err, entity.ErrTransport):
		return "📡 Could not reach the vision service. Try again later."
	case errors.Is(err, entity.ErrProtocol):
		return "🚫 The vision service rejected the request. Try again later."
	case errors.Is(err, entity.ErrParse):
		return "🤔 The vision service returned an unreadable answer. Try another photo."
	default:
		return "⚠️ Failed to process the image. Try another photo."
	}
}
