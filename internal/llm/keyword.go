package llm

import (
	"context"
	"strings"

	"github.com/RichardoC/bankchat/internal/models"
)

const (
	GreetingReply       = "Hello! I am your Bank Chatbot AI. I can assist you with banking inquiries regarding accounts, loans, and services. How can I help you?"
	BalanceReply        = "For your real-time balance, please use the **'Balance' button** under Banking Activities, as I cannot access specific account numbers directly for security reasons."
	LoanReply           = "Our current standard loan interest rates start at 4.5%. For a personalized quote, please click the **'Loan Information'** button."
	FeeReply            = "A standard transaction fee is $1.00, and the overdraft fee is $35."
	ATMReply            = "The maximum daily ATM withdrawal limit is $500. You can find nearest locations under **'ATM Information'**."
	BeMoreSpecificReply = "Thank you for your banking query. Please be more specific about the service you are looking for (e.g., balance, loan details, fees)."
	RefusalReply        = "I can only assist with bank-related inquiries, such as transactions, accounts, and loan information. I cannot answer general questions."
)

var (
	greetingWords = []string{"hello", "hi", "hey"}
	bankingWords  = []string{
		"balance", "money", "loan", "interest", "atm", "limit", "fee",
		"overdraft", "account", "transaction", "bank", "deposit", "withdraw",
	}

	// checked in order, first match wins
	keywordRules = []struct {
		words []string
		reply string
	}{
		{[]string{"balance", "account"}, BalanceReply},
		{[]string{"loan", "interest"}, LoanReply},
		{[]string{"fee", "overdraft"}, FeeReply},
		{[]string{"atm", "limit"}, ATMReply},
	}
)

// Keyword answers from a fixed table using substring matches on the lower
// cased utterance. It ignores history.
type Keyword struct{}

func (Keyword) Respond(_ context.Context, utterance string, _ []models.Message) string {
	text := strings.ToLower(utterance)

	if containsAny(text, greetingWords) {
		return GreetingReply
	}
	if !containsAny(text, bankingWords) {
		return RefusalReply
	}
	for _, rule := range keywordRules {
		if containsAny(text, rule.words) {
			return rule.reply
		}
	}
	return BeMoreSpecificReply
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
