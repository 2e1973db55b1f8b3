package net

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/peterkuimelis/monbattle/internal/battle"
)

// Client connects to a battle server and provides a terminal REPL.
type Client struct {
	conn       net.Conn
	playerName string // "P1" or "P2"

	in  io.Reader // defaults to os.Stdin
	out io.Writer // defaults to os.Stdout
}

// Connect connects to a server, sends the team choice, and runs the REPL.
func Connect(ctx context.Context, addr string, teamNumber int) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	// Send join message with team choice
	enc := json.NewEncoder(conn)
	if err := enc.Encode(ClientMessage{Type: "join", TeamNumber: teamNumber}); err != nil {
		return fmt.Errorf("send join: %w", err)
	}

	fmt.Println("Connected! Waiting for the battle to start...")

	client := &Client{conn: conn, playerName: "P2"}
	return client.RunREPL(ctx)
}

// RunREPL reads server messages and handles them interactively.
func (c *Client) RunREPL(ctx context.Context) error {
	if c.in == nil {
		c.in = os.Stdin
	}
	if c.out == nil {
		c.out = os.Stdout
	}
	dec := json.NewDecoder(c.conn)
	enc := json.NewEncoder(c.conn)
	reader := bufio.NewReader(c.in)

	for {
		var msg ServerMessage
		if err := dec.Decode(&msg); err != nil {
			return fmt.Errorf("read message: %w", err)
		}

		switch msg.Type {
		case "notify":
			c.renderEvent(msg.Event)

		case "choose_action":
			c.renderState(msg.State)
			fmt.Fprintf(c.out, "\nWhat will %s do?\n", msg.Slot)
			c.renderActions(msg.Actions)
			idx := c.readChoice(reader, len(msg.Actions))
			if err := enc.Encode(ClientMessage{Type: "action", Index: idx}); err != nil {
				return fmt.Errorf("send action: %w", err)
			}

		case "choose_replacement":
			if msg.State != nil {
				c.renderState(msg.State)
			}
			c.renderCandidates(msg.Prompt, msg.Candidates)
			idx := c.readChoice(reader, len(msg.Candidates))
			if err := enc.Encode(ClientMessage{Type: "replacement", Index: idx}); err != nil {
				return fmt.Errorf("send replacement: %w", err)
			}

		case "game_over":
			fmt.Fprintln(c.out)
			fmt.Fprintln(c.out, "═══════════════════════════════════")
			fmt.Fprintln(c.out, "          BATTLE OVER")
			fmt.Fprintln(c.out, "═══════════════════════════════════")
			fmt.Fprintln(c.out, msg.Result)
			fmt.Fprintln(c.out, "═══════════════════════════════════")
			return nil
		}
	}
}

func (c *Client) renderEvent(ev *EventView) {
	if ev == nil {
		return
	}
	// Format like the TextLogger
	phase := ev.Phase
	if phase == "" {
		phase = "          "
	}
	for len(phase) < 12 {
		phase += " "
	}
	fmt.Fprintf(c.out, "T%-2d %s| %s\n", ev.Turn, phase, ev.Details)
}

func (c *Client) renderState(sv *StateView) {
	if sv == nil {
		return
	}

	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, "╔══════════════════════════════════════════════════════╗")

	opp := sv.Opponent
	fmt.Fprintf(c.out, "║  OPPONENT %s  Party: %s\n", opp.Name, formatParty(opp.Party))
	for _, s := range opp.Slots {
		fmt.Fprintf(c.out, "║    %s\n", formatSlot(s))
	}

	fmt.Fprintln(c.out, "║──────────────────────────────────────────────────────")

	you := sv.You
	for _, s := range you.Slots {
		fmt.Fprintf(c.out, "║    %s\n", formatSlot(s))
	}
	fmt.Fprintf(c.out, "║  YOU %s  Party: %s\n", you.Name, formatParty(you.Party))
	fmt.Fprintln(c.out, "╚══════════════════════════════════════════════════════╝")

	info := fmt.Sprintf("Turn %d", sv.Turn)
	if sv.Weather != "" {
		info += " | " + sv.Weather
	}
	if sv.Terrain != "" {
		info += " | " + sv.Terrain
	}
	fmt.Fprintln(c.out, info)
}

func formatSlot(s SlotView) string {
	if s.Empty || s.Combatant == nil {
		return fmt.Sprintf("%s [ ]", s.Slot)
	}
	cv := s.Combatant
	line := fmt.Sprintf("%s [%s HP %d/%d]", s.Slot, cv.Name, cv.HP, cv.MaxHP)
	if cv.Status != "" {
		line += " " + strings.ToUpper(cv.Status)
	}
	for _, v := range s.Volatiles {
		line += " (" + v + ")"
	}
	if s.Charging != "" {
		line += " charging " + s.Charging
	}
	return line
}

func formatParty(party []CombatantView) string {
	var marks []string
	for _, cv := range party {
		if cv.Fainted {
			marks = append(marks, "x")
		} else {
			marks = append(marks, "o")
		}
	}
	return strings.Join(marks, "")
}

func (c *Client) renderActions(actions []ActionView) {
	fmt.Fprintln(c.out, "\nActions:")
	for _, a := range actions {
		fmt.Fprintf(c.out, "  %d) %s\n", a.Index+1, a.Desc)
	}
}

func (c *Client) renderCandidates(prompt string, candidates []CombatantView) {
	fmt.Fprintf(c.out, "\n%s\n", prompt)
	for _, cv := range candidates {
		fmt.Fprintf(c.out, "  %d) %s (HP %d/%d)\n", cv.Index+1, cv.Name, cv.HP, cv.MaxHP)
	}
}

func (c *Client) readChoice(reader *bufio.Reader, count int) int {
	for {
		fmt.Fprint(c.out, "> ")
		line, err := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		n, convErr := strconv.Atoi(line)
		if convErr == nil && n >= 1 && n <= count {
			return n - 1 // convert to 0-indexed
		}
		if err != nil {
			// Input closed: fall back to the first choice.
			return 0
		}
		fmt.Fprintf(c.out, "Enter a number between 1 and %d\n", count)
	}
}

// FormatTeamList renders numbered teams for selection prompts.
func FormatTeamList(teams []battle.Team) string {
	var b strings.Builder
	for i, t := range teams {
		names := make([]string, 0, len(t.Members))
		for _, c := range t.Members {
			names = append(names, fmt.Sprintf("%s Lv%d", c.Name, c.Level))
		}
		fmt.Fprintf(&b, "%d) %s: %s\n", i+1, t.Name, strings.Join(names, ", "))
	}
	return b.String()
}
