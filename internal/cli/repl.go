package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/RichardoC/bankchat/internal/models"
	"github.com/RichardoC/bankchat/internal/session"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

const (
	loggedOutHelp = "Commands: /register, /login, /exit"
	loggedInHelp  = "Commands: /view <chatbot|balance|loan_info|atm_info|transactions>, /show, " +
		"/new, /list, /load <id>, /delete <id>, /rename <id> <topic>, /logout, /exit. " +
		"Anything else is sent to the assistant."
)

// repl drives one Session from line oriented input. Lines starting with a
// slash are commands, every other line is a chat message.
type repl struct {
	session *session.Session
	scanner *bufio.Scanner
	logger  *zap.Logger
}

func (r *repl) run(ctx context.Context) {
	printlnFn("Welcome to the Bank Chatbot. Type /help for commands.")
	for {
		printlnFn(r.prompt())
		if !r.scanner.Scan() {
			return
		}
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			r.say(ctx, line)
			continue
		}

		parts := strings.Fields(line)
		switch parts[0] {
		case "/help":
			if r.session.State().LoggedIn {
				printlnFn(loggedInHelp)
			} else {
				printlnFn(loggedOutHelp)
			}

		case "/register":
			r.register(ctx)

		case "/login":
			r.login(ctx)

		case "/logout":
			r.session.Logout()
			printlnFn("Logged out.")

		case "/view":
			r.view(ctx, parts[1:])

		case "/show":
			r.show(ctx)

		case "/new":
			if err := r.session.NewChat(ctx); err != nil {
				r.report(err)
				continue
			}
			printlnFn("Started a new chat.")

		case "/list":
			r.list(ctx)

		case "/load":
			r.withID(parts, func(id int64) error {
				if err := r.session.LoadSession(ctx, id); err != nil {
					return err
				}
				r.show(ctx)
				return nil
			})

		case "/delete":
			r.withID(parts, func(id int64) error {
				if err := r.session.DeleteSession(ctx, id); err != nil {
					return err
				}
				printlnFn("Deleted chat", id)
				return nil
			})

		case "/rename":
			topic := ""
			if len(parts) > 2 {
				topic = strings.Join(parts[2:], " ")
			}
			r.withID(parts, func(id int64) error {
				return r.session.RenameSession(ctx, id, topic)
			})

		case "/exit", "/quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", parts[0])
		}
	}
}

func (r *repl) prompt() string {
	st := r.session.State()
	if !st.LoggedIn {
		return "bank> "
	}
	return fmt.Sprintf("bank %s [%s]> ", st.Username, st.View)
}

func (r *repl) credentials() (string, string, bool) {
	username, err := readLine(r.scanner, "Username:")
	if err != nil {
		if !errors.Is(err, io.EOF) {
			printlnFn("Error:", err)
		}
		return "", "", false
	}
	password, err := readSecret("Password:")
	if err != nil {
		printlnFn("Error:", err)
		return "", "", false
	}
	return username, password, true
}

func (r *repl) register(ctx context.Context) {
	if r.session.State().LoggedIn {
		r.report(session.ErrAlreadyLoggedIn)
		return
	}
	username, password, ok := r.credentials()
	if !ok {
		return
	}
	if _, err := r.session.Register(ctx, username, password); err != nil {
		r.report(err)
		return
	}
	printlnFn("Registration successful! Please log in.")
}

func (r *repl) login(ctx context.Context) {
	if r.session.State().LoggedIn {
		r.report(session.ErrAlreadyLoggedIn)
		return
	}
	username, password, ok := r.credentials()
	if !ok {
		return
	}
	if err := r.session.Login(ctx, username, password); err != nil {
		r.report(err)
		return
	}
	printlnFn("Welcome back,", r.session.State().Username+"!")
}

func (r *repl) view(ctx context.Context, args []string) {
	if len(args) != 1 {
		printlnFn("Usage: /view <chatbot|balance|loan_info|atm_info|transactions>")
		return
	}
	v, err := session.ParseView(args[0])
	if err != nil {
		r.report(err)
		return
	}
	if err := r.session.SelectView(v); err != nil {
		r.report(err)
		return
	}
	r.show(ctx)
}

func (r *repl) show(ctx context.Context) {
	screen, err := r.session.Screen(ctx)
	if err != nil {
		r.report(err)
		return
	}
	for _, line := range renderScreen(screen) {
		printlnFn(line)
	}
}

func (r *repl) list(ctx context.Context) {
	sessions, err := r.session.Sessions(ctx)
	if err != nil {
		r.report(err)
		return
	}
	if len(sessions) == 0 {
		printlnFn("No saved chats.")
		return
	}
	active := r.session.State().ActiveSessionID
	for _, s := range sessions {
		marker := " "
		if s.ID == active {
			marker = "*"
		}
		printlnFn(fmt.Sprintf("%s %d  %s  (%d messages, %s)",
			marker, s.ID, s.Topic, s.MessageCount, s.Timestamp.Local().Format("2006-01-02 15:04")))
	}
}

func (r *repl) say(ctx context.Context, text string) {
	reply, err := r.session.SendMessage(ctx, text)
	if err != nil {
		r.report(err)
		return
	}
	printlnFn("Bot:", reply.Content)
}

func (r *repl) withID(parts []string, fn func(id int64) error) {
	if len(parts) < 2 {
		printlnFn("Usage:", parts[0], "<id>")
		return
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		printlnFn("Invalid chat id:", parts[1])
		return
	}
	if err := fn(id); err != nil {
		r.report(err)
	}
}

// report prints expected errors as they are and hides storage failures
// behind a generic message.
func (r *repl) report(err error) {
	if session.IsStorageFailure(err) {
		r.logger.Error("command failed", zap.Error(err))
		printlnFn("Something went wrong. Please try again.")
		return
	}
	printlnFn("Error:", err)
}

func money(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

func renderScreen(s *session.Screen) []string {
	switch s.View {
	case session.ViewBalance:
		return []string{"Balance: " + money(*s.Balance)}

	case session.ViewLoanInfo:
		return []string{"Loan status: " + s.LoanStatus}

	case session.ViewAtmInfo:
		return []string{
			"Nearest ATM: " + s.Branch.ATMLocation,
			"Branch: " + s.Branch.Branch,
			"Daily ATM limit: " + money(s.Branch.DailyATMLimit),
		}

	case session.ViewTransactions:
		if len(s.Transactions) == 0 {
			return []string{"No transactions yet."}
		}
		lines := make([]string, 0, len(s.Transactions))
		for _, t := range s.Transactions {
			lines = append(lines, fmt.Sprintf("%s  %-24s %12s",
				t.CreatedAt.Local().Format("2006-01-02"), t.Description, money(t.Amount)))
		}
		return lines

	default:
		lines := []string{"Chat: " + s.Topic}
		for _, m := range s.Messages {
			lines = append(lines, speaker(m.Role)+": "+m.Content)
		}
		return lines
	}
}

func speaker(role models.Role) string {
	if role == models.RoleUser {
		return "You"
	}
	return "Bot"
}
