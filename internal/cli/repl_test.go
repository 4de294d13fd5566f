package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RichardoC/bankchat/internal/config"
	"github.com/RichardoC/bankchat/internal/llm"
	"github.com/RichardoC/bankchat/internal/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// captureOutput replaces printlnFn for the duration of the test.
func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var out []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		out = append(out, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &out
}

func stubPassword(t *testing.T, pw string, err error) {
	t.Helper()
	orig := readPassword
	readPassword = func(int) ([]byte, error) {
		if err != nil {
			return nil, err
		}
		return []byte(pw), nil
	}
	t.Cleanup(func() { readPassword = orig })
}

func testApp(t *testing.T) *app {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "bank.db")
	a, err := newApp(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.db.Close() })
	return a
}

func runScript(t *testing.T, a *app, lines ...string) (*session.Session, []string) {
	t.Helper()
	out := captureOutput(t)
	r := &repl{
		session: session.New(a.deps),
		scanner: bufio.NewScanner(strings.NewReader(strings.Join(lines, "\n"))),
		logger:  a.logger,
	}
	r.run(context.Background())
	return r.session, *out
}

func TestREPL_RegisterLoginAndChat(t *testing.T) {
	stubPassword(t, "pw1", nil)
	a := testApp(t)

	s, out := runScript(t, a,
		"/help",
		"/register",
		"alice",
		"/login",
		"alice",
		"What is my balance?",
		"What is the ATM limit?",
		"/list",
		"/view balance",
		"/view atm_info",
		"/view transactions",
		"/exit",
	)

	text := strings.Join(out, "\n")
	assert.Contains(t, text, loggedOutHelp)
	assert.Contains(t, text, "Registration successful! Please log in.")
	assert.Contains(t, text, "Welcome back, alice!")
	assert.Contains(t, text, "Bot: "+llm.BalanceReply)
	assert.Contains(t, text, "Bot: "+llm.ATMReply)
	assert.Contains(t, text, "What is my balance  (4 messages")
	assert.Contains(t, text, "Balance: $1500.75")
	assert.Contains(t, text, "Daily ATM limit: $500.00")
	assert.Contains(t, text, "Opening balance")
	assert.Equal(t, "Bye!", out[len(out)-1])

	st := s.State()
	assert.True(t, st.LoggedIn)
	assert.Len(t, st.Messages, 4)
}

func TestREPL_LoginFailure(t *testing.T) {
	stubPassword(t, "wrong", nil)
	a := testApp(t)
	_, err := a.deps.Credentials.Register(context.Background(), "alice", "pw1")
	require.NoError(t, err)

	s, out := runScript(t, a, "/login", "alice", "hello")

	text := strings.Join(out, "\n")
	assert.Contains(t, text, "Error: incorrect username or password")
	assert.Contains(t, text, "Error: not logged in")
	assert.False(t, s.State().LoggedIn)
}

func TestREPL_PasswordReadError(t *testing.T) {
	stubPassword(t, "", errors.New("not a terminal"))
	a := testApp(t)

	s, out := runScript(t, a, "/register", "alice")
	assert.Contains(t, strings.Join(out, "\n"), "Error: not a terminal")
	assert.False(t, s.State().LoggedIn)
}

func TestREPL_ChatManagement(t *testing.T) {
	stubPassword(t, "pw1", nil)
	a := testApp(t)
	_, err := a.deps.Credentials.Register(context.Background(), "alice", "pw1")
	require.NoError(t, err)

	s, out := runScript(t, a,
		"/login",
		"alice",
		"hello",
		"/new",
		"Tell me about loan interest",
		"/rename 1 Greetings",
		"/load 1",
		"/delete 1",
		"/load 1",
		"/load abc",
		"/frobnicate",
	)

	text := strings.Join(out, "\n")
	assert.Contains(t, text, "Started a new chat.")
	assert.Contains(t, text, "Chat: Greetings")
	assert.Contains(t, text, "You: hello")
	assert.Contains(t, text, "Deleted chat 1")
	assert.Contains(t, text, "Error: not found")
	assert.Contains(t, text, "Invalid chat id: abc")
	assert.Contains(t, text, "Unknown command: /frobnicate")

	st := s.State()
	assert.Zero(t, st.ActiveSessionID)
	assert.Empty(t, st.Messages)
}

func TestRenderScreen(t *testing.T) {
	balance := decimal.RequireFromString("-12.5")
	lines := renderScreen(&session.Screen{View: session.ViewBalance, Balance: &balance})
	assert.Equal(t, []string{"Balance: -$12.50"}, lines)

	lines = renderScreen(&session.Screen{View: session.ViewTransactions})
	assert.Equal(t, []string{"No transactions yet."}, lines)

	lines = renderScreen(&session.Screen{View: session.ViewLoanInfo, LoanStatus: "None"})
	assert.Equal(t, []string{"Loan status: None"}, lines)
}
