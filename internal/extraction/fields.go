package extraction

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

type bankMatcher struct {
	name     string
	patterns []*regexp.Regexp
}

// Enumeration order is part of the contract: when a receipt names two
// providers (e.g. a Yape payment into a BCP account), the earlier entry wins.
var bankMatchers = []bankMatcher{
	{"Yape", compileAll(`(?i)\byape\b`, `(?i)\byapeo\b`, `(?i)\byapeaste\b`)},
	{"Plin", compileAll(`(?i)\bplin\b`)},
	{"BCP", compileAll(`(?i)\bbcp\b`, `(?i)banco\s*de\s*cr[eé]dito`)},
	{"Interbank", compileAll(`(?i)\binterbank\b`)},
	{"BBVA", compileAll(`(?i)\bbbva\b`, `(?i)\bcontinental\b`)},
	{"Scotiabank", compileAll(`(?i)\bscotiabank\b`)},
	{"BanBif", compileAll(`(?i)\bbanbif\b`)},
	{"Banco de la Nacion", compileAll(`(?i)banco\s*de\s*la\s*naci[oó]n`)},
	{"Tarjeta", compileAll(`(?i)tarjeta\s*(de\s*)?(cr[eé]dito|d[eé]bito)`, `(?i)\bvisa\b`, `(?i)\bmastercard\b`)},
	{"Transferencia", compileAll(`(?i)transferencia\s*(bancaria)?`, `(?i)\btransferencia\b`)},
}

// Ordered most specific to least specific; the first pattern whose parsed
// value lands in the accepted range wins.
var amountPatterns = compileAll(
	`S/\.?\s*(\d{1,6}[.,]\d{2})`,
	`S/\.?\s*(\d{1,6})\b`,
	`PEN\s*(\d{1,6}[.,]\d{2})`,
	`(\d{1,6}[.,]\d{2})\s*(?:soles|PEN)`,
	`(?:monto|importe|total|pagaste|recibido|enviaste|pago)\s*:?\s*S?/?\.?\s*(\d{1,6}[.,]\d{2})`,
	`(?:monto|importe|total|pagaste|recibido|enviaste|pago)\s*:?\s*S?/?\.?\s*(\d{1,6})\b`,
	`USD?\s*\$?\s*(\d{1,6}[.,]\d{2})`,
	`(?:^|\n)\s*(\d{2,6}[.,]\d{2})\s*(?:$|\n)`,
	`[Ss]/?\s*(\d{2,6}[.,]\d{2})`,
)

var usdPattern = regexp.MustCompile(`(?i)(USD|US\$|d[oó]lar)`)

var (
	minAmount = decimal.RequireFromString("0.5")
	maxAmount = decimal.RequireFromString("100000")
)

var operationPatterns = compileAll(
	`(?i)(?:N[°ºo.]?\s*(?:de\s*)?(?:operaci[oó]n|transacci[oó]n|referencia|pedido))\s*:?\s*(\w{4,20})`,
	`(?i)(?:Nro\.?\s*(?:de\s*)?operaci[oó]n)\s*:?\s*(\w{4,20})`,
	`(?i)(?:C[oó]digo|Code)\s*:?\s*(\w{4,20})`,
	`(?i)(?:operaci[oó]n|transacci[oó]n)\s*:?\s*#?\s*(\w{4,20})`,
	`(?i)(?:CodOpe|Op\.?)\s*:?\s*(\d{6,20})`,
	`#(\d{8,20})`,
)

var (
	dateTextPattern    = regexp.MustCompile(`(?i)(\d{1,2})\s*(?:de\s*)?(enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|octubre|noviembre|diciembre|ene\.?|feb\.?|mar\.?|abr\.?|may\.?|jun\.?|jul\.?|ago\.?|sep\.?|oct\.?|nov\.?|dic\.?)\s*(?:de\s*)?\.?\s*(\d{2,4})`)
	dateNumericPattern = regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})`)
)

var monthNumbers = map[string]int{
	"enero": 1, "febrero": 2, "marzo": 3, "abril": 4,
	"mayo": 5, "junio": 6, "julio": 7, "agosto": 8,
	"septiembre": 9, "octubre": 10, "noviembre": 11, "diciembre": 12,
	"ene": 1, "feb": 2, "mar": 3, "abr": 4,
	"may": 5, "jun": 6, "jul": 7, "ago": 8,
	"sep": 9, "oct": 10, "nov": 11, "dic": 12,
}

var timePatterns = compileAll(
	`(?i)(\d{1,2}:\d{2}:\d{2})`,
	`(?i)(\d{1,2}:\d{2})\s*(?:p\.?\s*m\.?|a\.?\s*m\.?)`,
	`(?i)(\d{1,2}:\d{2})\s*(?:hrs?|horas)?`,
)

var pmPattern = regexp.MustCompile(`(?i)p\.?\s*m\.?`)

var phonePatterns = compileAll(
	`(?:celular|tel[eé]fono|m[oó]vil|cel)\s*:?\s*(\d{9})`,
	`\b(9\d{8})\b`,
)

var lastFourPatterns = compileAll(
	`\*{2,}(\d{4})`,
	`(?:terminada?\s*en|ending)\s*(\d{4})`,
	`(?:cuenta|tarjeta)\s*\*+(\d{4})`,
)

// Name words are joined by same-line whitespace only, so a greedy match
// cannot swallow the label on the following line.
var namePatterns = compileAll(
	`(?:De|Para|Enviado\s*a|Recibido\s*de|Pagador|Nombre)\s*:?\s*([A-ZÁÉÍÓÚÑ][a-záéíóúñ]+(?:[ \t]+[A-ZÁÉÍÓÚÑ][a-záéíóúñ]+){1,4})`,
	`(?:Destino|Destinatario)\s*:?\s*([A-ZÁÉÍÓÚÑ][a-záéíóúñ]+(?:[ \t]+[A-ZÁÉÍÓÚÑ][a-záéíóúñ]+){0,4})`,
	`(?:Destino|Destinatario)[ \t]+([A-Z][A-Za-záéíóúñ \t]{2,30})`,
)

func compileAll(patterns ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		res[i] = regexp.MustCompile(p)
	}
	return res
}

// detectBank returns the first provider with any matching pattern.
func detectBank(text string) *string {
	for _, m := range bankMatchers {
		for _, p := range m.patterns {
			if p.MatchString(text) {
				name := m.name
				return &name
			}
		}
	}
	return nil
}

// AmountInRange reports whether a candidate amount falls inside the window
// accepted for payments. The lower bound is exclusive so trivial values like
// S/ 0.50 never pass.
func AmountInRange(amount decimal.Decimal) bool {
	return amount.GreaterThan(minAmount) && !amount.GreaterThan(maxAmount)
}

// extractAmount returns the first in-range amount and the inferred currency.
// The currency scan is independent of which amount pattern matched; PEN is
// the default.
func extractAmount(text string) (*decimal.Decimal, string) {
	currency := CurrencyPEN
	if usdPattern.MatchString(text) {
		currency = CurrencyUSD
	}

	for _, p := range amountPatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		amount, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", "."))
		if err != nil {
			continue
		}
		if !AmountInRange(amount) {
			continue
		}
		return &amount, currency
	}
	return nil, CurrencyPEN
}

func extractOperationCode(text string) *string {
	for _, p := range operationPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return &m[1]
		}
	}
	return nil
}

// extractDate normalizes to YYYY-MM-DD. Textual dates are tried before
// numeric ones; two-digit years are assumed to be in the 2000s. For numeric
// dates a middle component above 12 means day and month arrived swapped.
func extractDate(text string) *string {
	if m := dateTextPattern.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, ok := monthNumbers[strings.TrimSuffix(strings.ToLower(m[2]), ".")]
		if !ok {
			month = 1
		}
		date := fmt.Sprintf("%s-%02d-%02d", expandYear(m[3]), month, day)
		return &date
	}

	if m := dateNumericPattern.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if month > 12 {
			day, month = month, day
		}
		date := fmt.Sprintf("%s-%02d-%02d", expandYear(m[3]), month, day)
		return &date
	}

	return nil
}

func expandYear(year string) string {
	if len(year) == 2 {
		return "20" + year
	}
	return year
}

// extractTime normalizes to 24-hour HH:MM:SS. A PM marker within ten
// characters after the match promotes the hour; missing seconds become :00.
func extractTime(text string) *string {
	for _, p := range timePatterns {
		loc := p.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		parts := strings.Split(text[loc[2]:loc[3]], ":")
		hour, _ := strconv.Atoi(parts[0])
		minute, _ := strconv.Atoi(parts[1])
		second := 0
		if len(parts) > 2 {
			second, _ = strconv.Atoi(parts[2])
		}

		windowEnd := loc[1] + 10
		if windowEnd > len(text) {
			windowEnd = len(text)
		}
		if pmPattern.MatchString(text[loc[0]:windowEnd]) && hour < 12 {
			hour += 12
		}

		t := fmt.Sprintf("%02d:%02d:%02d", hour, minute, second)
		return &t
	}
	return nil
}

func extractPhone(text string) *string {
	for _, p := range phonePatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return &m[1]
		}
	}
	return nil
}

func extractLastFour(text string) *string {
	for _, p := range lastFourPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return &m[1]
		}
	}
	return nil
}

// extractNames scans all name patterns in order and takes the first two
// distinct matches as payer and receiver.
func extractNames(text string) (payer, receiver *string) {
	var names []string
	seen := make(map[string]bool)
	for _, p := range namePatterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			name := strings.TrimSpace(m[1])
			if utf8.RuneCountInString(name) <= 2 || seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}

	if len(names) > 0 {
		payer = &names[0]
	}
	if len(names) > 1 {
		receiver = &names[1]
	}
	return payer, receiver
}
