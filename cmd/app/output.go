package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/SAMZalaf/bmomtm/internal/application"
	"github.com/SAMZalaf/bmomtm/internal/domain"
)

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printKV(rows [][2]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
	}
	_ = w.Flush()
}

func printTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Println("no results")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func formatMaybeUint(v *uint) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatUint(uint64(*v), 10)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func buttonFlags(b domain.Button) string {
	var flags []string
	if !b.IsEnabled {
		flags = append(flags, "disabled")
	}
	if b.IsHidden {
		flags = append(flags, "hidden")
	}
	if b.IsService {
		flags = append(flags, fmt.Sprintf("price=%.2f", b.Price))
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}

func printButtons(items []domain.Button) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(item.ID), 10),
			formatMaybeUint(item.ParentID),
			strconv.Itoa(item.OrderIndex),
			item.ButtonKey,
			string(item.ButtonType),
			item.TextEn,
			buttonFlags(item),
		})
	}
	printTable([]string{"ID", "PARENT", "ORDER", "KEY", "TYPE", "TEXT_EN", "FLAGS"}, rows)
}

func printButton(b domain.Button) {
	printKV([][2]string{
		{"id", strconv.FormatUint(uint64(b.ID), 10)},
		{"parent", formatMaybeUint(b.ParentID)},
		{"key", b.ButtonKey},
		{"type", string(b.ButtonType)},
		{"text_ar", b.TextAr},
		{"text_en", b.TextEn},
		{"order", strconv.Itoa(b.OrderIndex)},
		{"callback", b.CallbackData},
		{"flags", buttonFlags(b)},
		{"updated_at", formatTime(b.UpdatedAt)},
	})
}

// printTree writes one line per node, indented by depth.
func printTree(nodes []*domain.ButtonNode) {
	if len(nodes) == 0 {
		fmt.Println("no buttons")
		return
	}
	var walk func(level []*domain.ButtonNode, depth int)
	walk = func(level []*domain.ButtonNode, depth int) {
		for _, n := range level {
			fmt.Printf("%s%s [%d] %s (%s, %s)\n",
				strings.Repeat("  ", depth), n.Icon, n.ID, n.TextEn, n.ButtonKey, buttonFlags(n.Button))
			walk(n.Children, depth+1)
		}
	}
	walk(nodes, 0)
}

func printPages(pages []domain.Page) {
	for _, p := range pages {
		title := fmt.Sprintf("page %d", p.Number)
		if p.Separator != nil {
			title += " (" + p.Separator.ButtonKey + ")"
		}
		fmt.Println(title)
		for _, n := range p.Buttons {
			fmt.Printf("  [%d] %s\n", n.ID, n.TextEn)
		}
	}
}

func printCopyResult(res application.CopyResult) {
	fmt.Printf("created %d buttons\n", res.TotalCreated)
	printTree(res.Buttons)
}

func printBotStatus(s domain.BotStatus) {
	restart := "-"
	if s.RestartAt != nil {
		restart = formatTime(s.RestartAt.Local())
	}
	printKV([][2]string{
		{"running", strconv.FormatBool(s.IsRunning)},
		{"restart_at", restart},
	})
}

func printSettings(values map[string]string) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][2]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, [2]string{k, values[k]})
	}
	printKV(rows)
}

func printOrders(page domain.OrderPage) {
	rows := make([][]string, 0, len(page.Orders))
	for _, o := range page.Orders {
		rows = append(rows, []string{
			o.OrderID,
			strconv.FormatInt(o.UserID, 10),
			o.ProxyType,
			o.Status,
			fmt.Sprintf("%.2f", o.TotalPrice),
			formatTime(o.CreatedAt),
		})
	}
	printTable([]string{"ORDER_ID", "USER_ID", "TYPE", "STATUS", "TOTAL", "CREATED_AT"}, rows)
	fmt.Printf("showing %d of %d\n", len(page.Orders), page.Total)
}

func printOrder(o domain.Order) {
	rows := [][2]string{
		{"order_id", o.OrderID},
		{"user_id", strconv.FormatInt(o.UserID, 10)},
		{"type", o.ProxyType},
		{"country", o.ProxyCountry},
		{"status", o.Status},
		{"total", fmt.Sprintf("%.2f", o.TotalPrice)},
		{"created_at", formatTime(o.CreatedAt)},
	}
	if o.ButtonPath != nil {
		rows = append(rows, [2]string{"path", o.ButtonPath.ButtonNamesEn})
	}
	printKV(rows)
}

func printActivity(items []domain.ActivityLog) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(item.ID), 10),
			formatTime(item.CreatedAt),
			string(item.Action),
			formatMaybeUint(item.ButtonID),
			item.Details,
		})
	}
	printTable([]string{"ID", "AT", "ACTION", "BUTTON", "DETAILS"}, rows)
}
