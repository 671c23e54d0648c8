package domain

import "time"

// SendTimeLayout is the canonical rendering of a campaign send time.
const SendTimeLayout = "2006-01-02 15:04:05"

// Campaign is one normalized row of an email campaign export.
type Campaign struct {
	CampaignName    string `json:"campaignName"`
	VariantName     string `json:"variantName"`
	Tags            string `json:"tags"`
	Subject         string `json:"subject"`
	List            string `json:"list"`
	SendTime        string `json:"sendTime"`
	SendWeekday     string `json:"sendWeekday"`
	CampaignID      string `json:"campaignId"`
	CampaignChannel string `json:"campaignChannel"`

	TotalRecipients      float64 `json:"totalRecipients"`
	UniquePlacedOrder    float64 `json:"uniquePlacedOrder"`
	UniqueOpens          float64 `json:"uniqueOpens"`
	TotalOpens           float64 `json:"totalOpens"`
	UniqueClicks         float64 `json:"uniqueClicks"`
	TotalClicks          float64 `json:"totalClicks"`
	Unsubscribes         float64 `json:"unsubscribes"`
	SpamComplaints       float64 `json:"spamComplaints"`
	SuccessfulDeliveries float64 `json:"successfulDeliveries"`
	Bounces              float64 `json:"bounces"`

	// Rates are percentages: 12.34 means 12.34%.
	PlacedOrderRate    float64 `json:"placedOrderRate"`
	OpenRate           float64 `json:"openRate"`
	ClickRate          float64 `json:"clickRate"`
	SpamComplaintsRate float64 `json:"spamComplaintsRate"`
	BounceRate         float64 `json:"bounceRate"`

	Revenue float64 `json:"revenue"`

	WinningVariant *string `json:"winningVariant,omitempty"`
}

// CampaignStats is derived from a campaign collection and never mutated in place.
type CampaignStats struct {
	TotalCampaigns   int       `json:"totalCampaigns"`
	TotalRecipients  float64   `json:"totalRecipients"`
	TotalRevenue     float64   `json:"totalRevenue"`
	TotalOrders      float64   `json:"totalOrders"`
	TotalOpens       float64   `json:"totalOpens"`
	TotalClicks      float64   `json:"totalClicks"`
	AverageOpenRate  float64   `json:"averageOpenRate"`
	AverageClickRate float64   `json:"averageClickRate"`
	AverageOrderRate float64   `json:"averageOrderRate"`
	BestCampaign     *Campaign `json:"bestCampaign"`
	WorstCampaign    *Campaign `json:"worstCampaign"`
}

// ChartPoint is one bar/line entry of the performance charts.
type ChartPoint struct {
	Name      string  `json:"name"`
	Revenue   float64 `json:"revenue"`
	Orders    float64 `json:"orders"`
	OpenRate  float64 `json:"openRate"`
	ClickRate float64 `json:"clickRate"`
	OrderRate float64 `json:"orderRate"`
}

// Dataset is the collection loaded from a single uploaded file.
type Dataset struct {
	ID         string     `json:"id"`
	FileName   string     `json:"fileName"`
	Kind       FileKind   `json:"kind"`
	UploadedAt time.Time  `json:"uploadedAt"`
	Campaigns  []Campaign `json:"-"`
}

// UploadResult summarizes one ingestion run
type UploadResult struct {
	DatasetID       string        `json:"datasetId"`
	FileName        string        `json:"fileName"`
	Kind            FileKind      `json:"kind"`
	RowsRead        int           `json:"rowsRead"`
	CampaignsLoaded int           `json:"campaignsLoaded"`
	Duration        time.Duration `json:"duration"`
}

// Dashboard bundles everything the presentation layer renders.
type Dashboard struct {
	Dataset        *Dataset      `json:"dataset,omitempty"`
	Filter         FilterOptions `json:"filter"`
	TotalCampaigns int           `json:"totalCampaigns"`
	ShownCampaigns int           `json:"shownCampaigns"`
	Filtered       bool          `json:"filtered"`
	Campaigns      []Campaign    `json:"campaigns"`
	Stats          CampaignStats `json:"stats"`
	Charts         []ChartPoint  `json:"charts"`
}
