package app

import (
	"charm.land/lipgloss/v2"

	"julesctl/internal/patch"
	"julesctl/internal/types"
)

const (
	cardPaddingVertical   = 0
	cardPaddingHorizontal = 1
)

var (
	headerStyle           = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	helpStyle             = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	sessionStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	sourceLabelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	selectedStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("236"))
	dividerStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	activeAccountStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("70")).Bold(true)
	userBubbleStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Background(lipgloss.Color("236")).Padding(cardPaddingVertical, cardPaddingHorizontal)
	agentBubbleStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(cardPaddingVertical, cardPaddingHorizontal)
	systemBubbleStyle     = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("237")).Foreground(lipgloss.Color("245")).Padding(cardPaddingVertical, cardPaddingHorizontal)
	planCardStyle         = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("179")).Foreground(lipgloss.Color("230")).Padding(cardPaddingVertical, cardPaddingHorizontal)
	planResolvedCardStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("108")).Foreground(lipgloss.Color("251")).Padding(cardPaddingVertical, cardPaddingHorizontal)
	codeCardStyle         = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("69")).Padding(cardPaddingVertical, cardPaddingHorizontal)
	completedCardStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("70")).Padding(cardPaddingVertical, cardPaddingHorizontal)
	rawCardStyle          = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("237")).Foreground(lipgloss.Color("244")).Faint(true).Padding(cardPaddingVertical, cardPaddingHorizontal)
	chatMetaStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Faint(true)
	chatMetaSelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("117")).Bold(true)
	stepCursorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("117")).Bold(true)
	approveButtonStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("70")).Bold(true).Underline(true)
	pendingButtonStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	inputFrameStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("69")).Padding(0, 1)
	inputFrameBlurStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)
	fileCreatedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	fileDeletedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	fileEditedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("180"))
	toastInfoStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("29")).Bold(true)
	toastWarningStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("136")).Bold(true)
	toastErrorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("160")).Bold(true)
)

func statusDot(state types.SessionState) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(state.Family().Color())).Render("●")
}

func fileKindStyle(kind patch.ChangeKind) lipgloss.Style {
	switch kind {
	case patch.Created:
		return fileCreatedStyle
	case patch.Deleted:
		return fileDeletedStyle
	default:
		return fileEditedStyle
	}
}
