// Package gsheets writes value ranges into a Google spreadsheet.
package gsheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// valueInputOption lets the spreadsheet coerce values as if typed by a user,
// so "83,456" becomes a number in a comma-decimal locale.
const valueInputOption = "USER_ENTERED"

// Client updates value ranges of a single spreadsheet
type Client struct {
	svc           *sheets.Service
	spreadsheetID string
}

// New creates a client for the spreadsheet
func New(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Client, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// UpdateValues overwrites the range with rows
func (c *Client) UpdateValues(ctx context.Context, a1Range string, rows [][]any) error {
	vr := &sheets.ValueRange{Values: rows}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, a1Range, vr).
		ValueInputOption(valueInputOption).
		Context(ctx).
		Do()
	return err
}
