package session

import "fmt"

// View is the page the user is looking at while logged in.
type View string

const (
	ViewChatbot      View = "chatbot"
	ViewBalance      View = "balance"
	ViewLoanInfo     View = "loan_info"
	ViewAtmInfo      View = "atm_info"
	ViewTransactions View = "transactions"
)

var views = []View{ViewChatbot, ViewBalance, ViewLoanInfo, ViewAtmInfo, ViewTransactions}

// Views lists every view in navigation order.
func Views() []View {
	out := make([]View, len(views))
	copy(out, views)
	return out
}

func ParseView(s string) (View, error) {
	for _, v := range views {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
}
