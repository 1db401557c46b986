// Package checkout turns a cart into WhatsApp order messages. The order
// itself is confirmed by the shop admin over chat.
package checkout

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/irsalhamdi/ecosera-cart/core/cart"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const separator = "————————————"

var printer = message.NewPrinter(language.Indonesian)

// Shop identifies who receives the order messages.
type Shop struct {
	Name     string
	WhatsApp string
}

// Handoff is one WhatsApp order: a message and the link that sends it.
type Handoff struct {
	Seller    string `json:"seller,omitempty"`
	ItemCount int    `json:"itemCount"`
	Subtotal  int64  `json:"subtotal"`
	Message   string `json:"message"`
	URL       string `json:"url"`
}

// Checkout holds the handoff for the whole cart and one per seller.
type Checkout struct {
	All     Handoff   `json:"all"`
	Sellers []Handoff `json:"sellers"`
}

// Money renders an IDR amount the Indonesian way, e.g. "Rp 45.000".
func Money(n int64) string {
	return "Rp " + printer.Sprintf("%d", n)
}

// Message builds the pre-filled order text for items.
func Message(shopName string, items []cart.Item) string {
	var sub int64
	lines := []string{"*" + shopName + "*", separator}

	for i, it := range items {
		seller := ""
		if it.SellerName != "" {
			seller = " (" + it.SellerName + ")"
		}
		lines = append(lines, fmt.Sprintf("%d) %s%s x%d = %s", i+1, it.Name, seller, it.Quantity, Money(it.Total())))
		sub += it.Total()
	}

	lines = append(lines,
		separator,
		"Subtotal: "+Money(sub),
		"Ongkir: (admin akan konfirmasi)",
		"Total: "+Money(sub)+" *estimasi tanpa ongkir*",
		separator,
		"Mohon isi data pemesanan:",
		"Nama:",
		"Alamat:",
		"Nomor HP:",
		"Catatan:",
	)

	return strings.Join(lines, "\n")
}

// Link builds a wa.me deep link opening a chat with phone, prefilled with
// text. Local numbers starting with 0 are rewritten to the 62 country code.
func Link(phone, text string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	num := digits.String()
	if strings.HasPrefix(num, "0") {
		num = "62" + num[1:]
	}

	q := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return "https://wa.me/" + num + "?text=" + q
}

// Handoffs builds one message for the whole cart and one per seller group.
func Handoffs(shop Shop, c cart.Cart) Checkout {
	msg := Message(shop.Name, c.Items)
	out := Checkout{
		All: Handoff{
			ItemCount: c.ItemCount,
			Subtotal:  c.Subtotal,
			Message:   msg,
			URL:       Link(shop.WhatsApp, msg),
		},
		Sellers: make([]Handoff, 0, len(c.Sellers)),
	}

	for _, g := range c.Sellers {
		msg := Message(shop.Name, g.Items)

		n := 0
		for _, it := range g.Items {
			n += it.Quantity
		}

		out.Sellers = append(out.Sellers, Handoff{
			Seller:    g.Seller,
			ItemCount: n,
			Subtotal:  g.Subtotal,
			Message:   msg,
			URL:       Link(shop.WhatsApp, msg),
		})
	}

	return out
}
