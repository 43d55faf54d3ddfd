package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/hostguard/agent/internal/domain"
	"github.com/hostguard/agent/internal/telegram"
)

// Callback actions wired to the inline keyboards.
const (
	actionStatus         = "status"
	actionSecurity       = "security"
	actionRestartDocker  = "restart_docker"
	actionConfirmRestart = "confirm_restart"
	actionMainMenu       = "main_menu"
	actionHelp           = "help"
)

const deniedText = "❌ You do not have access to this bot.\nContact the administrator."

const unknownValue = "unknown"

func mainMenuKeyboard() *telegram.InlineKeyboardMarkup {
	return telegram.Keyboard(
		[]telegram.InlineKeyboardButton{telegram.Button("🔄 Server status", actionStatus)},
		[]telegram.InlineKeyboardButton{telegram.Button("🛡 Security", actionSecurity)},
		[]telegram.InlineKeyboardButton{telegram.Button("🚀 Restart Docker", actionRestartDocker)},
		[]telegram.InlineKeyboardButton{telegram.Button("ℹ️ Help", actionHelp)},
	)
}

func backKeyboard() *telegram.InlineKeyboardMarkup {
	return telegram.Keyboard(
		[]telegram.InlineKeyboardButton{telegram.Button("« Back", actionMainMenu)},
	)
}

func welcomeView(userID int64) (string, *telegram.InlineKeyboardMarkup) {
	text := fmt.Sprintf("👋 Welcome, administrator!\n\nID: %d\nChoose an action:", userID)
	return text, mainMenuKeyboard()
}

func mainMenuView() (string, *telegram.InlineKeyboardMarkup) {
	return "🏠 Main menu\n\nChoose an action:", mainMenuKeyboard()
}

func statusView(snap domain.StatusSnapshot) (string, *telegram.InlineKeyboardMarkup) {
	containers := unknownValue
	if snap.ContainersKnown {
		containers = fmt.Sprintf("%d running", snap.RunningContainers)
	}

	var b strings.Builder
	b.WriteString("🖥 Server status\n")
	fmt.Fprintf(&b, "📦 Docker containers: %s\n", containers)
	fmt.Fprintf(&b, "⚙️ Load: %s / %s / %s\n", snap.Load1, snap.Load5, snap.Load15)
	fmt.Fprintf(&b, "⏰ Checked at: %s", snap.CheckedAt.Format("15:04:05"))

	markup := telegram.Keyboard(
		[]telegram.InlineKeyboardButton{telegram.Button("🔄 Refresh", actionStatus)},
		[]telegram.InlineKeyboardButton{telegram.Button("🚀 Restart Docker", actionRestartDocker)},
		[]telegram.InlineKeyboardButton{telegram.Button("« Back", actionMainMenu)},
	)
	return b.String(), markup
}

func securityView(snap domain.SecuritySnapshot) (string, *telegram.InlineKeyboardMarkup) {
	ports := unknownValue
	if snap.PortsKnown {
		ports = fmt.Sprintf("%d", snap.ListeningPorts)
	}

	var b strings.Builder
	b.WriteString("🛡 Security overview\n")
	fmt.Fprintf(&b, "🧱 Firewall: %s\n", snap.Firewall)
	fmt.Fprintf(&b, "🚫 Intrusion guard: %s\n", snap.IntrusionGuard)
	fmt.Fprintf(&b, "🔌 Listening ports: %s\n", ports)
	fmt.Fprintf(&b, "⏰ Checked at: %s", snap.CheckedAt.Format("15:04:05"))

	markup := telegram.Keyboard(
		[]telegram.InlineKeyboardButton{telegram.Button("🔄 Refresh", actionSecurity)},
		[]telegram.InlineKeyboardButton{telegram.Button("« Back", actionMainMenu)},
	)
	return b.String(), markup
}

func helpView() (string, *telegram.InlineKeyboardMarkup) {
	text := strings.Join([]string{
		"ℹ️ Bot help",
		"",
		"• 🔄 Server status - containers and host load",
		"• 🛡 Security - firewall, intrusion guard, open ports",
		"• 🚀 Restart Docker - compose down, 5s pause, compose up -d",
		"• 🚨 Alerts - automatic notifications on suspicious log activity",
		"",
		"Access is limited to allow-listed operators.",
		"All actions are logged. Critical operations require confirmation.",
	}, "\n")
	return text, backKeyboard()
}

func confirmRestartView() (string, *telegram.InlineKeyboardMarkup) {
	text := "⚠️ Are you sure? The docker-compose stack will be restarted.\nThis may cause a short downtime."
	markup := telegram.Keyboard(
		[]telegram.InlineKeyboardButton{
			telegram.Button("✅ Confirm", actionConfirmRestart),
			telegram.Button("❌ Cancel", actionStatus),
		},
	)
	return text, markup
}

func restartProgressView() string {
	return "⏳ Restarting the docker-compose stack...\n\nThis may take a while..."
}

func restartResultView(result *domain.RestartResult) (string, *telegram.InlineKeyboardMarkup) {
	var b strings.Builder
	if result.Completed {
		fmt.Fprintf(&b, "✅ Stack restarted in %s", result.Duration.Round(time.Second))
	} else {
		b.WriteString("❌ Restart failed\n")
		fmt.Fprintf(&b, "Stop ok: %v\n", result.StopOK)
		if result.StopOutput != "" {
			fmt.Fprintf(&b, "Stop output: %s\n", result.StopOutput)
		}
		fmt.Fprintf(&b, "Start ok: %v", result.StartOK)
		if result.StartOutput != "" {
			fmt.Fprintf(&b, "\nStart output: %s", result.StartOutput)
		}
	}

	markup := telegram.Keyboard(
		[]telegram.InlineKeyboardButton{telegram.Button("🔄 Status", actionStatus)},
		[]telegram.InlineKeyboardButton{telegram.Button("« Back", actionMainMenu)},
	)
	return b.String(), markup
}
