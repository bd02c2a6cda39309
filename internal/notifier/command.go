package notifier

import (
	"strconv"
	"strings"
)

// CommandKind is a chat request the bot understands.
type CommandKind int

const (
	CommandHelp CommandKind = iota
	CommandTop
	CommandPrice
	CommandUnknown
	CommandScan
)

// Command is a parsed chat message.
type Command struct {
	Kind  CommandKind
	// Limit is N in "/top N"; zero means the configured default.
	Limit int
	// Item is the name asked for by "/price".
	Item  string
	Raw   string
}

// commandWords maps slash commands and their Chinese keyboard labels to a kind.
var commandWords = map[string]CommandKind{
	"/start":   CommandHelp,
	"/help":    CommandHelp,
	"/top":     CommandTop,
	"价格排行":     CommandTop,
	"/price":   CommandPrice,
	"查价":       CommandPrice,
	"/unknown": CommandUnknown,
	"未知物品":     CommandUnknown,
	"/scan":    CommandScan,
	"扫描截图":     CommandScan,
}

// ParseCommand turns a chat message into a Command. A bot mention on the command
// word ("/top@LootLedgerBot") is ignored, and anything unrecognized asks for help.
func ParseCommand(text string) Command {
	text = strings.TrimSpace(text)
	cmd := Command{Kind: CommandHelp, Raw: text}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return cmd
	}
	word, _, _ := strings.Cut(fields[0], "@")
	kind, ok := commandWords[strings.ToLower(word)]
	if !ok {
		return cmd
	}
	cmd.Kind = kind

	arg := strings.TrimSpace(strings.TrimPrefix(text, fields[0]))
	switch kind {
	case CommandTop:
		if n, err := strconv.Atoi(arg); err == nil && n > 0 {
			cmd.Limit = n
		}
	case CommandPrice:
		cmd.Item = arg
	}
	return cmd
}
