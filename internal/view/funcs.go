package view

import (
	"html/template"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/kasirku/internal/model"
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"rupiah":    Rupiah,
		"number":    number,
		"roleLabel": roleLabel,
		"dateID":    dateID,
		"isActive":  isActive,
	}
}

// Rupiah formats an amount the way Indonesian receipts do: "Rp 15.000".
func Rupiah(v float64) string {
	s := thousands(int64(math.Round(math.Abs(v))))
	if v < 0 {
		return "-Rp " + s
	}
	return "Rp " + s
}

func number(n int) string { return thousands(int64(n)) }

func thousands(n int64) string {
	raw := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(raw, "-")
	raw = strings.TrimPrefix(raw, "-")
	var b strings.Builder
	for i, ch := range raw {
		if i > 0 && (len(raw)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(ch)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func roleLabel(role string) string {
	switch role {
	case model.RoleAdmin:
		return "Administrator"
	case model.RoleCashier:
		return "Kasir"
	}
	return role
}

var (
	dayNames   = []string{"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"}
	monthNames = []string{"Januari", "Februari", "Maret", "April", "Mei", "Juni", "Juli", "Agustus", "September", "Oktober", "November", "Desember"}
)

// dateID renders "Senin, 4 Mei 2026".
func dateID(t time.Time) string {
	return dayNames[t.Weekday()] + ", " + strconv.Itoa(t.Day()) + " " + monthNames[t.Month()-1] + " " + strconv.Itoa(t.Year())
}

// isActive marks the menu entry owning the current path.
func isActive(current, prefix string) bool {
	return current == prefix || strings.HasPrefix(current, prefix+"/")
}

func uitoa(n uint64) string { return strconv.FormatUint(n, 10) }
