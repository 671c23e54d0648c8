package usecase

import (
	"strings"
	"unicode"

	"campaigndash/internal/domain"
)

// Canonical export headers. Matching ignores case and whitespace only.
const (
	HeaderCampaignName         = "Campaign Name"
	HeaderVariantName          = "Variant Name"
	HeaderTags                 = "Tags"
	HeaderSubject              = "Subject"
	HeaderList                 = "List"
	HeaderSendTime             = "Send Time"
	HeaderSendWeekday          = "Send Weekday"
	HeaderTotalRecipients      = "Total Recipients"
	HeaderUniquePlacedOrder    = "Unique Placed Order"
	HeaderPlacedOrderRate      = "Placed Order Rate"
	HeaderRevenue              = "Revenue"
	HeaderUniqueOpens          = "Unique Opens"
	HeaderOpenRate             = "Open Rate"
	HeaderTotalOpens           = "Total Opens"
	HeaderUniqueClicks         = "Unique Clicks"
	HeaderClickRate            = "Click Rate"
	HeaderTotalClicks          = "Total Clicks"
	HeaderUnsubscribes         = "Unsubscribes"
	HeaderSpamComplaints       = "Spam Complaints"
	HeaderSpamComplaintsRate   = "Spam Complaints Rate"
	HeaderSuccessfulDeliveries = "Successful Deliveries"
	HeaderBounces              = "Bounces"
	HeaderBounceRate           = "Bounce Rate"
	HeaderCampaignID           = "Campaign ID"
	HeaderCampaignChannel      = "Campaign Channel"
	HeaderWinningVariant       = "Winning Variant?"
)

// CanonicalHeaders lists every recognized header in export order.
var CanonicalHeaders = []string{
	HeaderCampaignName, HeaderVariantName, HeaderTags, HeaderSubject, HeaderList,
	HeaderSendTime, HeaderSendWeekday, HeaderTotalRecipients, HeaderUniquePlacedOrder,
	HeaderPlacedOrderRate, HeaderRevenue, HeaderUniqueOpens, HeaderOpenRate,
	HeaderTotalOpens, HeaderUniqueClicks, HeaderClickRate, HeaderTotalClicks,
	HeaderUnsubscribes, HeaderSpamComplaints, HeaderSpamComplaintsRate,
	HeaderSuccessfulDeliveries, HeaderBounces, HeaderBounceRate, HeaderCampaignID,
	HeaderCampaignChannel, HeaderWinningVariant,
}

// NormalizeKey trims, lower-cases and drops every whitespace rune.
func NormalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, key)
}

// FieldIndex resolves canonical headers against one raw row.
type FieldIndex struct {
	row     domain.RawRow
	columns map[string]int
}

// NewFieldIndex maps each normalized header to the first column carrying it.
func NewFieldIndex(row domain.RawRow) *FieldIndex {
	columns := make(map[string]int, len(row))
	for i, field := range row {
		key := NormalizeKey(field.Key)
		if _, seen := columns[key]; !seen {
			columns[key] = i
		}
	}
	return &FieldIndex{row: row, columns: columns}
}

// Lookup returns the value under target, or an empty cell and false when no header matches.
func (x *FieldIndex) Lookup(target string) (domain.Cell, bool) {
	i, ok := x.columns[NormalizeKey(target)]
	if !ok {
		return domain.EmptyCell(), false
	}
	return x.row[i].Value, true
}

// Value is Lookup without the presence flag.
func (x *FieldIndex) Value(target string) domain.Cell {
	cell, _ := x.Lookup(target)
	return cell
}

// Text returns the trimmed text rendering of target.
func (x *FieldIndex) Text(target string) string {
	return strings.TrimSpace(x.Value(target).String())
}
