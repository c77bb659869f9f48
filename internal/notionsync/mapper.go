package notionsync

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/bill-reconciler/internal/domain"
	"github.com/jomei/notionapi"
)

// Property names of the review database.
const (
	PropDescription = "Description"
	PropHash        = "Hash"
	PropImportID    = "Import ID"
	PropDate        = "Date"
	PropAmount      = "Amount"
	PropCategory    = "Category"
	PropBestBill    = "Best Bill"
	PropVendor      = "Vendor"
	PropConfidence  = "Confidence"
	PropMethod      = "Match Method"
	PropReason      = "Reason"
	PropCandidates  = "Candidates"
)

// ReviewToNotionProperties converts a needs-review match result to the
// properties of a review page. hash identifies the transaction across imports.
func ReviewToNotionProperties(importID, hash string, r domain.MatchResult) notionapi.Properties {
	tx := r.Transaction
	amount, _ := tx.Amount.Float64()

	props := notionapi.Properties{
		PropDescription: notionapi.TitleProperty{
			Title: richText(tx.Description),
		},
		PropHash: notionapi.RichTextProperty{
			RichText: richText(hash),
		},
		PropImportID: notionapi.RichTextProperty{
			RichText: richText(importID),
		},
		PropDate: notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: notionDate(tx.Date)},
		},
		PropAmount: notionapi.NumberProperty{
			Number: amount,
		},
		PropCategory: notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(tx.Category)},
		},
		PropCandidates: notionapi.NumberProperty{
			Number: float64(len(r.Matches)),
		},
	}

	best := r.BestMatch
	if best == nil {
		return props
	}

	props[PropBestBill] = notionapi.RichTextProperty{
		RichText: richText(billLabel(best.Bill)),
	}
	if best.Bill.VendorName != "" {
		props[PropVendor] = notionapi.RichTextProperty{
			RichText: richText(best.Bill.VendorName),
		}
	}
	props[PropConfidence] = notionapi.NumberProperty{
		Number: best.Confidence,
	}
	props[PropMethod] = notionapi.SelectProperty{
		Select: notionapi.Option{Name: string(best.MatchMethod)},
	}
	if best.MatchReason != "" {
		props[PropReason] = notionapi.RichTextProperty{
			RichText: richText(best.MatchReason),
		}
	}

	return props
}

func billLabel(b domain.Bill) string {
	if b.Description == "" {
		return b.ID
	}
	return fmt.Sprintf("%s (%s)", b.Description, b.ID)
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: s},
		},
	}
}

func notionDate(d civil.Date) *notionapi.Date {
	t := notionapi.Date(time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC))
	return &t
}

// extractHash returns the transaction hash stored on a review page, or "".
func extractHash(page notionapi.Page) string {
	var rt []notionapi.RichText
	switch p := page.Properties[PropHash].(type) {
	case *notionapi.RichTextProperty:
		rt = p.RichText
	case notionapi.RichTextProperty:
		rt = p.RichText
	}
	if len(rt) == 0 {
		return ""
	}
	if rt[0].PlainText != "" {
		return rt[0].PlainText
	}
	if rt[0].Text != nil {
		return rt[0].Text.Content
	}
	return ""
}
