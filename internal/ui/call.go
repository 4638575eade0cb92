package ui

import (
	"fmt"

	"charm.land/lipgloss/v2"

	"github.com/danhigham/cometcharm/internal/domain"
)

// callBox renders the incoming call prompt for call.
func callBox(call domain.Call) string {
	kind := "voice"
	if call.Type == domain.CallVideo {
		kind = "video"
	}
	from := call.Initiator.Name
	if from == "" {
		from = call.Initiator.UID
	}

	body := lipgloss.JoinVertical(lipgloss.Center,
		titleStyle.Render(fmt.Sprintf("Incoming %s call", kind)),
		"",
		labelStyle.Render(from),
		subtleStyle.Render(call.Initiator.UID),
		"",
		subtleStyle.Render("d decline"),
	)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(1, 4).
		BorderForegroundBlend(rainbowBlend...).
		Render(body)
}
