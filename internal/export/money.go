package export

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var currencySymbols = map[string]string{
	"BRL": "R$",
	"USD": "US$",
	"EUR": "€",
}

// MoneyFormatter renders amounts with the grouping and decimal marks of a locale.
type MoneyFormatter struct {
	group   string
	decimal string
	symbol  string
}

func NewMoneyFormatter(locale, currency string) MoneyFormatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.BrazilianPortuguese
	}
	code := strings.ToUpper(strings.TrimSpace(currency))
	symbol, ok := currencySymbols[code]
	if !ok {
		symbol = code
	}
	group, decimalMark := separators(message.NewPrinter(tag))
	return MoneyFormatter{group: group, decimal: decimalMark, symbol: symbol}
}

// separators reads the locale's marks off a formatted sample ("1.234.567,50"
// in pt-BR). Digits are laid out from the exact decimal string, never a float.
func separators(p *message.Printer) (string, string) {
	sample := []rune(p.Sprintf("%.2f", 1234567.5))
	two := -1
	for i, r := range sample {
		if r == '2' {
			two = i
			break
		}
	}
	if len(sample) < 10 || sample[0] != '1' || two < 1 {
		return ".", ","
	}
	return string(sample[1:two]), string(sample[len(sample)-3])
}

// Money formats v as "R$ 145.000,00" for pt-BR.
func (f MoneyFormatter) Money(v decimal.Decimal) string {
	return f.symbol + " " + f.Number(v)
}

func (f MoneyFormatter) Number(v decimal.Decimal) string {
	fixed := v.StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteString(f.group)
		}
		b.WriteRune(digit)
	}
	b.WriteString(f.decimal)
	b.WriteString(frac)
	return b.String()
}

func (f MoneyFormatter) Percent(v decimal.Decimal) string {
	return f.Number(v) + "%"
}
