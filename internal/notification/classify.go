package notification

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	paymentMarker = "Payment of"

	UnknownAmount      = "unknown"
	UnknownFarmer      = "Unknown Farmer"
	UnknownAmountLabel = "Unknown Amount"
)

var (
	acceptancePattern = regexp.MustCompile(`^Farmer (.+) has accepted your payment of \$(\S+)\.$`)
	paymentAmount     = regexp.MustCompile(`Payment of \$(\d+(?:\.\d+)?)`)
)

// Classify derives a category from message text. Used for rows written
// before the category column existed and for live records missing it.
func Classify(message string) Category {
	if acceptancePattern.MatchString(message) {
		return CategoryAcceptance
	}
	if strings.Contains(message, paymentMarker) {
		return CategoryPayment
	}
	return CategoryOrder
}

// categoryOf prefers the stored discriminant.
func categoryOf(n Notification) Category {
	if n.Category.Valid() {
		return n.Category
	}
	return Classify(n.Message)
}

func ExtractPaymentAmount(message string) string {
	m := paymentAmount.FindStringSubmatch(message)
	if m == nil {
		return UnknownAmount
	}
	return m[1]
}

func AcceptanceMessage(farmerName, amount string) string {
	return fmt.Sprintf("Farmer %s has accepted your payment of $%s.", farmerName, amount)
}

// ParseAcceptance extracts the farmer name and amount from an acceptance announcement.
func ParseAcceptance(message string) (name, amount string) {
	m := acceptancePattern.FindStringSubmatch(message)
	if m == nil {
		return UnknownFarmer, UnknownAmountLabel
	}
	return m[1], m[2]
}

func PaymentSentMessage(amount string) string {
	return fmt.Sprintf("Payment of $%s has been sent to your account.", amount)
}

func OrderPlacedMessage(itemCount int, total string) string {
	return fmt.Sprintf("New order received for %d items (total LKR %s)", itemCount, total)
}

// UnreadCount counts unread items of the category. An empty category counts all.
func UnreadCount(items []Notification, category Category) int {
	n := 0
	for _, it := range items {
		if it.IsRead {
			continue
		}
		if category == "" || categoryOf(it) == category {
			n++
		}
	}
	return n
}
