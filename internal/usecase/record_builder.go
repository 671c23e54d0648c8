package usecase

import (
	"time"

	"campaigndash/internal/domain"
)

// RecordBuilder turns raw rows into canonical campaigns.
type RecordBuilder struct {
	loc *time.Location
}

// NewRecordBuilder renders send times in loc (time.Local when nil).
func NewRecordBuilder(loc *time.Location) *RecordBuilder {
	return &RecordBuilder{loc: orLocal(loc)}
}

// Build assembles one campaign. The second result is false when the row has no campaign name.
func (b *RecordBuilder) Build(row domain.RawRow) (domain.Campaign, bool) {
	fields := NewFieldIndex(row)

	campaign := domain.Campaign{
		CampaignName:    fields.Text(HeaderCampaignName),
		VariantName:     fields.Text(HeaderVariantName),
		Tags:            fields.Text(HeaderTags),
		Subject:         fields.Text(HeaderSubject),
		List:            fields.Text(HeaderList),
		SendTime:        ToSendTime(fields.Value(HeaderSendTime), b.loc),
		SendWeekday:     fields.Text(HeaderSendWeekday),
		CampaignID:      fields.Text(HeaderCampaignID),
		CampaignChannel: fields.Text(HeaderCampaignChannel),

		TotalRecipients:      ToNumber(fields.Value(HeaderTotalRecipients)),
		UniquePlacedOrder:    ToNumber(fields.Value(HeaderUniquePlacedOrder)),
		PlacedOrderRate:      ToNumber(fields.Value(HeaderPlacedOrderRate)),
		Revenue:              ToNumber(fields.Value(HeaderRevenue)),
		UniqueOpens:          ToNumber(fields.Value(HeaderUniqueOpens)),
		OpenRate:             ToNumber(fields.Value(HeaderOpenRate)),
		TotalOpens:           ToNumber(fields.Value(HeaderTotalOpens)),
		UniqueClicks:         ToNumber(fields.Value(HeaderUniqueClicks)),
		ClickRate:            ToNumber(fields.Value(HeaderClickRate)),
		TotalClicks:          ToNumber(fields.Value(HeaderTotalClicks)),
		Unsubscribes:         ToNumber(fields.Value(HeaderUnsubscribes)),
		SpamComplaints:       ToNumber(fields.Value(HeaderSpamComplaints)),
		SpamComplaintsRate:   ToNumber(fields.Value(HeaderSpamComplaintsRate)),
		SuccessfulDeliveries: ToNumber(fields.Value(HeaderSuccessfulDeliveries)),
		Bounces:              ToNumber(fields.Value(HeaderBounces)),
		BounceRate:           ToNumber(fields.Value(HeaderBounceRate)),
	}

	if winner := fields.Text(HeaderWinningVariant); winner != "" {
		campaign.WinningVariant = &winner
	}

	return campaign, campaign.CampaignName != ""
}

// BuildAll keeps row order and silently drops rows without a campaign name.
func (b *RecordBuilder) BuildAll(rows []domain.RawRow) []domain.Campaign {
	campaigns := make([]domain.Campaign, 0, len(rows))

	for _, row := range rows {
		if campaign, ok := b.Build(row); ok {
			campaigns = append(campaigns, campaign)
		}
	}

	return campaigns
}
