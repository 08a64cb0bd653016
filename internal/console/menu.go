// Package console implements the operator menu of the billing office.
//
// Each selection runs one operation to completion; any error it returns is
// reported on the output and the menu is shown again. Only option 0 or the
// end of input leaves the loop.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/septivank/eb-billing/internal/db"
	"github.com/septivank/eb-billing/internal/logging"
	"github.com/septivank/eb-billing/internal/service"
	"github.com/septivank/eb-billing/internal/validator"
	"github.com/septivank/eb-billing/tools/timeparser"
	"go.uber.org/zap"
)

// Longest operator line accepted; longer lines are rejected as invalid input
const maxInputLength = 4096

var errEndOfInput = errors.New("end of input")

type action struct {
	key   string
	label string
	run   func(ctx context.Context) error
}

// Menu is the interactive text menu
type Menu struct {
	records *service.RecordService
	billing *service.BillingService
	in      *bufio.Reader
	out     io.Writer
	styles  Styles
	logger  *zap.Logger
	actions []action
}

// NewMenu creates a menu reading operator input from in and writing reports to out
func NewMenu(
	records *service.RecordService,
	billing *service.BillingService,
	in io.Reader,
	out io.Writer,
	logger *zap.Logger,
) *Menu {
	m := &Menu{
		records: records,
		billing: billing,
		in:      bufio.NewReader(in),
		out:     out,
		styles:  NewStyles(out),
		logger:  logger,
	}
	m.actions = []action{
		{"1", "Add Client", m.addClient},
		{"2", "View Clients", m.viewClients},
		{"3", "Remove Client", m.removeClient},
		{"4", "Add Reading", m.addReading},
		{"5", "View Readings", m.viewReadings},
		{"6", "Generate Bill", m.generateBill},
		{"7", "View Bills", m.viewBills},
		{"8", "Show Analysis", m.showAnalysis},
	}
	return m
}

// Run shows the menu until the operator chooses 0 or input ends
func (m *Menu) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		m.printMenu()
		choice, err := m.prompt("Enter choice: ")
		if errors.Is(err, errEndOfInput) {
			return nil
		}
		if errors.Is(err, validator.ErrInputFormat) {
			m.report(ctx, err)
			continue
		}
		if err != nil {
			return err
		}

		if choice == "0" {
			m.println(m.styles.Success.Render("Thank you for using the system!"))
			return nil
		}

		act, ok := m.lookup(choice)
		if !ok {
			m.println(m.styles.Warning.Render("Invalid choice. Try again!"))
			continue
		}

		opID := uuid.NewString()
		opCtx := logging.WithOperationID(ctx, opID)
		logging.FromContext(opCtx, m.logger).Debug("menu selection", zap.String("choice", act.key), zap.String("action", act.label))

		if err := act.run(opCtx); err != nil {
			if errors.Is(err, errEndOfInput) {
				return nil
			}
			m.report(opCtx, err)
		}
	}
}

func (m *Menu) lookup(choice string) (action, bool) {
	for _, a := range m.actions {
		if a.key == choice {
			return a, true
		}
	}
	return action{}, false
}

func (m *Menu) printMenu() {
	m.println("")
	m.println(m.styles.Title.Render("===== ELECTRICITY BOARD MANAGEMENT SYSTEM ====="))
	for _, a := range m.actions {
		m.println(a.key + ". " + a.label)
	}
	m.println("0. Exit")
}

// report turns an operation error into an operator message
func (m *Menu) report(ctx context.Context, err error) {
	var msg string
	switch {
	case errors.Is(err, validator.ErrInvalidPhone):
		msg = "Invalid phone number! Please enter exactly 10 digits."
	case errors.Is(err, db.ErrConflict):
		msg = "Meter number already exists! Try a different one."
	case errors.Is(err, db.ErrNotFound):
		msg = "No client found with that ID."
	case errors.Is(err, service.ErrInsufficientData):
		msg = "Not enough readings to generate bill."
	case errors.Is(err, service.ErrNoBillingData):
		msg = "No billing data to analyze."
	case errors.Is(err, validator.ErrInputFormat):
		msg = "Invalid input: " + err.Error()
	default:
		logging.FromContext(ctx, m.logger).Error("operation failed", zap.Error(err))
		msg = "Operation failed: " + err.Error()
	}
	m.println(m.styles.Error.Render(msg))
}

// prompt reads one line. A final line without a newline still counts.
func (m *Menu) prompt(label string) (string, error) {
	fmt.Fprint(m.out, label)

	line, err := m.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		if line == "" {
			return "", errEndOfInput
		}
	}

	line = strings.TrimSpace(line)
	if len(line) > maxInputLength {
		return "", fmt.Errorf("%w: line of %d characters exceeds %d", validator.ErrInputFormat, len(line), maxInputLength)
	}
	return line, nil
}

func (m *Menu) println(s string) {
	fmt.Fprintln(m.out, s)
}

func (m *Menu) promptID(label string) (int64, error) {
	s, err := m.prompt(label)
	if err != nil {
		return 0, err
	}
	return validator.ParseID(s)
}

func (m *Menu) promptDate(label string) (time.Time, error) {
	s, err := m.prompt(label)
	if err != nil {
		return time.Time{}, err
	}
	return validator.ParseDate(s)
}

func (m *Menu) addClient(ctx context.Context) error {
	m.println(m.styles.Title.Render("--- Add New Client ---"))

	fields := make([]string, 4)
	for i, label := range []string{
		"Enter client name: ",
		"Enter meter number: ",
		"Enter address: ",
		"Enter 10-digit phone number: ",
	} {
		v, err := m.prompt(label)
		if err != nil {
			return err
		}
		fields[i] = v
	}

	id, err := m.records.RegisterClient(ctx, fields[0], fields[1], fields[2], fields[3])
	if err != nil {
		return err
	}

	m.println(m.styles.Success.Render(fmt.Sprintf("Client added successfully! (ID %d)", id)))
	return nil
}

func (m *Menu) viewClients(ctx context.Context) error {
	clients, err := m.records.ListClients(ctx)
	if err != nil {
		return err
	}
	if len(clients) == 0 {
		m.println("No clients found.")
		return nil
	}

	t := NewTable("--- CLIENT LIST ---", "ID", "Name", "Meter No", "Address", "Phone")
	for _, c := range clients {
		t.AddRow(strconv.FormatInt(c.ID, 10), c.Name, c.MeterNo, c.Address, c.Phone)
	}
	fmt.Fprint(m.out, t.Render(m.styles))
	return nil
}

func (m *Menu) removeClient(ctx context.Context) error {
	if err := m.viewClients(ctx); err != nil {
		return err
	}

	id, err := m.promptID("Enter Client ID to remove: ")
	if err != nil {
		return err
	}

	removed, err := m.records.RemoveClient(ctx, id, func(c db.Client) (bool, error) {
		answer, err := m.prompt(fmt.Sprintf("Are you sure you want to delete client '%s'? (y/n): ", c.Name))
		if err != nil {
			return false, err
		}
		return strings.EqualFold(answer, "y"), nil
	})
	if err != nil {
		return err
	}

	if removed {
		m.println(m.styles.Success.Render("Client removed successfully!"))
	} else {
		m.println("Deletion cancelled.")
	}
	return nil
}

func (m *Menu) addReading(ctx context.Context) error {
	if err := m.viewClients(ctx); err != nil {
		return err
	}

	clientID, err := m.promptID("Enter Client ID: ")
	if err != nil {
		return err
	}
	date, err := m.promptDate("Enter reading date (YYYY-MM-DD): ")
	if err != nil {
		return err
	}
	raw, err := m.prompt("Enter reading in kWh: ")
	if err != nil {
		return err
	}
	value, err := validator.ParseReadingValue(raw)
	if err != nil {
		return err
	}

	if _, err := m.records.AddReading(ctx, clientID, date, value); err != nil {
		return err
	}

	m.println(m.styles.Success.Render("Reading added successfully!"))
	return nil
}

func (m *Menu) viewReadings(ctx context.Context) error {
	readings, err := m.records.ListReadings(ctx)
	if err != nil {
		return err
	}
	if len(readings) == 0 {
		m.println("No readings found.")
		return nil
	}

	t := NewTable("--- METER READINGS ---", "ID", "Name", "Date", "Reading (kWh)")
	for _, r := range readings {
		t.AddRow(strconv.FormatInt(r.ID, 10), r.ClientName, timeparser.FormatDate(r.Date), formatNumber(r.Value))
	}
	fmt.Fprint(m.out, t.Render(m.styles))
	return nil
}

func (m *Menu) generateBill(ctx context.Context) error {
	if err := m.viewClients(ctx); err != nil {
		return err
	}

	clientID, err := m.promptID("Enter Client ID: ")
	if err != nil {
		return err
	}
	start, err := m.promptDate("Enter start date (YYYY-MM-DD): ")
	if err != nil {
		return err
	}
	end, err := m.promptDate("Enter end date (YYYY-MM-DD): ")
	if err != nil {
		return err
	}

	bill, err := m.billing.GenerateBill(ctx, clientID, start, end)
	if err != nil {
		return err
	}

	m.println(m.styles.Success.Render("Bill generated successfully!"))
	m.println(fmt.Sprintf("Client ID: %d", bill.ClientID))
	m.println("Units: " + formatNumber(bill.Units))
	m.println("Rate: " + formatNumber(service.Rate))
	m.println("Amount: " + formatNumber(bill.Amount))
	m.println("Status: " + bill.Status)
	return nil
}

func (m *Menu) viewBills(ctx context.Context) error {
	bills, err := m.billing.ListBills(ctx)
	if err != nil {
		return err
	}
	if len(bills) == 0 {
		m.println("No bills found.")
		return nil
	}

	t := NewTable("--- BILL DETAILS ---", "ID", "Name", "Start", "End", "Units", "Amount", "Status")
	for _, b := range bills {
		t.AddRow(
			strconv.FormatInt(b.ID, 10),
			b.ClientName,
			timeparser.FormatDate(b.StartDate),
			timeparser.FormatDate(b.EndDate),
			formatNumber(b.Units),
			formatNumber(b.Amount),
			b.Status,
		)
	}
	fmt.Fprint(m.out, t.Render(m.styles))
	return nil
}

func (m *Menu) showAnalysis(ctx context.Context) error {
	analysis, err := m.billing.Analyze(ctx)
	if err != nil {
		return err
	}

	m.println(m.styles.Title.Render("--- ELECTRICITY CONSUMPTION ANALYSIS ---"))
	m.println(fmt.Sprintf("Total Units Consumed: %s kWh", formatNumber(analysis.TotalUnits)))
	m.println(fmt.Sprintf("Total Revenue Collected: %s", formatNumber(analysis.TotalAmount)))
	m.println(fmt.Sprintf("Average Units per Bill: %.2f", analysis.AvgUnits))
	m.println(fmt.Sprintf("Highest Consumption in a Bill: %s kWh", formatNumber(analysis.MaxUnits)))

	m.println(m.styles.Title.Render(fmt.Sprintf("--- Top %d Consumers (Name, Units) ---", service.TopConsumerCount)))
	for _, c := range analysis.TopConsumers {
		m.println(fmt.Sprintf("%s → %s kWh", c.Name, formatNumber(c.Units)))
	}
	return nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
