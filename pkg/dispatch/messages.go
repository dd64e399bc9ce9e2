package dispatch

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sipeed/tokenbot/pkg/chains"
)

// Commands are registered with the transport at startup.
var Commands = []BotCommand{
	{Name: "start", Description: "Start the bot and see welcome message"},
	{Name: "help", Description: "Show detailed help and usage instructions"},
	{Name: "analyze", Description: "Analyze a specific token contract address"},
	{Name: "chains", Description: "Show supported blockchain networks"},
	{Name: "status", Description: "Show bot status and statistics"},
}

const exampleAddress = "0x1234567890abcdef1234567890abcdef12345678"

const helpCommands = `*Commands:*
/start - Show this help message
/help - Show detailed help
/analyze <address> - Analyze a specific token
/chains - Show supported chains
/status - Show bot status`

func startText(networks []chains.Chain) string {
	var b strings.Builder
	b.WriteString("🤖 *Welcome to BearTech Token Analysis Bot!*\n\n")
	b.WriteString("I can analyze any token contract address and provide comprehensive security and market analysis.\n\n")
	b.WriteString("*How to use:*\n")
	b.WriteString("1. Send me a contract address (e.g. `0x1234...`)\n")
	b.WriteString("2. I'll analyze the token across multiple chains\n")
	b.WriteString("3. Get detailed security, market, and risk analysis\n\n")
	b.WriteString("*Supported Chains:*\n")
	for _, c := range networks {
		fmt.Fprintf(&b, "%s %s\n", c.Emoji, c.Name)
	}
	b.WriteString("\n*Features:*\n")
	for _, f := range []string{"Honeypot detection", "Security analysis", "Market data", "Liquidity analysis", "Holder distribution", "Deployer information", "Risk assessment"} {
		b.WriteString("✅ " + f + "\n")
	}
	b.WriteString("\n" + helpCommands + "\n\n")
	b.WriteString("Just send me a contract address to get started! 🚀")
	return b.String()
}

const helpText = "📖 *BearTech Token Analysis Bot - Help*\n\n" +
	"*Basic Usage:*\n" +
	"• Send any contract address to analyze it\n" +
	"• The bot will automatically detect the chain\n" +
	"• Analysis includes security, market, and risk data\n\n" +
	"*Supported Address Format:*\n" +
	"• `" + exampleAddress + "`\n\n" +
	"*Analysis Includes:*\n" +
	"🔒 *Security:* honeypot detection, contract verification, taxes, security flags\n" +
	"💰 *Market:* price, market cap, volume, liquidity, price change\n" +
	"👥 *Holders:* holder count, distribution, whale concentration\n" +
	"👤 *Deployer:* deployer and owner addresses, creator holdings\n" +
	"⚠️ *Risk:* overall level, risk factors\n\n" +
	helpCommands + "\n\n" +
	"*Tips:*\n" +
	"• Always verify contract addresses before trading\n" +
	"• Use multiple sources for important decisions\n" +
	"• Be cautious with new or unverified tokens"

func chainsText(networks []chains.Chain) string {
	var b strings.Builder
	b.WriteString("🌐 *Supported Blockchain Networks*\n\n")
	for _, c := range networks {
		fmt.Fprintf(&b, "%s *%s*\n", c.Emoji, c.Name)
		fmt.Fprintf(&b, "   • Chain ID: %d\n", c.ID)
		if c.Explorer != "" {
			host := strings.TrimPrefix(strings.TrimPrefix(c.Explorer, "https://"), "http://")
			fmt.Fprintf(&b, "   • Explorer: %s\n", host)
		}
		if c.Native != "" {
			fmt.Fprintf(&b, "   • Native Token: %s\n", c.Native)
		}
		b.WriteString("\n")
	}
	b.WriteString("*Auto-Detection:*\n")
	b.WriteString("The bot detects which chain a contract belongs to by checking it across all supported networks. ")
	b.WriteString("When a token exists on several chains, the most liquid instance is analyzed.")
	return b.String()
}

type statusInfo struct {
	InFlight int
	Served   uint64
	Failed   uint64
	Uptime   time.Duration
}

func statusText(s statusInfo) string {
	var b strings.Builder
	b.WriteString("🤖 *Bot Status*\n\n")
	b.WriteString("✅ *Operational*\n\n")
	b.WriteString("📈 *Activity:*\n")
	fmt.Fprintf(&b, "   • Analyses in progress: %d\n", s.InFlight)
	fmt.Fprintf(&b, "   • Analyses completed: %d\n", s.Served)
	fmt.Fprintf(&b, "   • Analyses failed: %d\n", s.Failed)
	fmt.Fprintf(&b, "   • Uptime: %s\n\n", s.Uptime.Truncate(time.Second))
	b.WriteString("Ready to analyze tokens! 🚀")
	return b.String()
}

const (
	usageText = "❌ Please provide a contract address.\n\nUsage: `/analyze 0x1234...`"

	invalidAddressText = "❌ Please send a valid contract address.\n\n" +
		"Example: `" + exampleAddress + "`\n\n" +
		"Use /help for more information."

	inProgressText = "⏳ You already have an analysis in progress. Please wait for it to complete."

	formatErrorText   = "❌ Error formatting results. Please try again."
	deliveryErrorText = "❌ Error sending results. Please try again."
	refreshErrorText  = "❌ Error refreshing analysis. Please try again."

	actionsText = "📋 *Quick Actions*"
)

func analyzingText(address string) string {
	return "🔍 *Analyzing token...*\n\n" +
		"Address: `" + address + "`\n" +
		"⏳ Please wait while I gather data from multiple sources..."
}

func refreshingText(address string) string {
	return "🔄 *Refreshing analysis...*\n\n" +
		"Address: `" + address + "`\n" +
		"⏳ Please wait..."
}

func analysisFailedText(address string, cause error) string {
	reason := "unknown error"
	if cause != nil {
		reason = cause.Error()
	}
	return "❌ *Analysis Failed*\n\n" +
		"Address: `" + address + "`\n" +
		"Error: " + reason + "\n\n" +
		"Please try again or contact support if the issue persists."
}

// failureText picks the user-facing notice for a failed request.
func failureText(kind Kind, address string, cause error) string {
	switch kind {
	case KindInvalidAddress:
		return invalidAddressText
	case KindAlreadyInProgress:
		return inProgressText
	case KindAnalysisError:
		return analysisFailedText(address, cause)
	case KindFormatError:
		return formatErrorText
	case KindDeliveryError:
		return deliveryErrorText
	case KindCallbackError:
		return refreshErrorText
	default:
		return "❌ An error occurred. Please try again. (" + strconv.Itoa(int(kind)) + ")"
	}
}
