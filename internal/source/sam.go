package source

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/govcon-cli/internal/fetcher"
	"github.com/sells-group/govcon-cli/internal/model"
)

const (
	samDefaultBaseURL  = "https://api.sam.gov/opportunities/v2/search"
	samDefaultPageSize = 100
	samMaxPages        = 50
	samDateLayout      = "01/02/2006"

	// ptype filters: o solicitation, k combined synopsis/solicitation, p presolicitation, r sources sought.
	ptypeSolicitations = "o,k,p"
	ptypeSourcesSought = "r"
)

// SAMOptions configures the SAM.gov opportunities client.
type SAMOptions struct {
	APIKey            string
	BaseURL           string
	PageSize          int
	LookbackDays      int
	FetchDescriptions bool
	// MaxPages caps pages per partition; zero means samMaxPages.
	MaxPages int
	// Now is overridable for tests.
	Now func() time.Time
}

// SAM implements Source over the SAM.gov opportunities search API.
type SAM struct {
	f    fetcher.Fetcher
	opts SAMOptions
	log  *zap.Logger
}

// NewSAM creates a SAM.gov source that downloads through f.
func NewSAM(f fetcher.Fetcher, opts SAMOptions) *SAM {
	if opts.BaseURL == "" {
		opts.BaseURL = samDefaultBaseURL
	}
	if opts.PageSize <= 0 {
		opts.PageSize = samDefaultPageSize
	}
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = 30
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = samMaxPages
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &SAM{
		f:    f,
		opts: opts,
		log:  zap.L().With(zap.String("component", "source.sam")),
	}
}

// Name implements Source.
func (s *SAM) Name() string { return "sam.gov" }

// Fetch returns open solicitations for the NAICS code.
func (s *SAM) Fetch(ctx context.Context, naics string) ([]model.RawOpportunity, error) {
	return s.search(ctx, naics, ptypeSolicitations)
}

// FetchAlternate returns sources-sought notices for the NAICS code.
func (s *SAM) FetchAlternate(ctx context.Context, naics string) ([]model.RawOpportunity, error) {
	return s.search(ctx, naics, ptypeSourcesSought)
}

func (s *SAM) search(ctx context.Context, naics, ptype string) ([]model.RawOpportunity, error) {
	if s.opts.APIKey == "" {
		return nil, eris.New("sam: API key not configured (sam.api_key)")
	}

	log := s.log.With(zap.String("naics", naics), zap.String("ptype", ptype))

	var out []model.RawOpportunity
	offset, total := 0, 0
	complete := false
	for page := 0; page < s.opts.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		log.Debug("fetching SAM page", zap.Int("offset", offset))

		data, err := s.get(ctx, s.searchURL(naics, ptype, offset))
		if err != nil {
			return nil, eris.Wrapf(err, "sam: fetch page at offset %d", offset)
		}

		resp, err := parseSearchResponse(data)
		if err != nil {
			return nil, eris.Wrapf(err, "sam: parse response at offset %d", offset)
		}

		for _, n := range resp.OpportunitiesData {
			out = append(out, s.toRaw(ctx, n))
		}

		offset += len(resp.OpportunitiesData)
		total = resp.TotalRecords
		if len(resp.OpportunitiesData) < s.opts.PageSize || offset >= resp.TotalRecords {
			complete = true
			break
		}
	}

	if !complete {
		log.Warn("SAM page cap reached, partition truncated",
			zap.Int("max_pages", s.opts.MaxPages),
			zap.Int("fetched", len(out)),
			zap.Int("total_records", total),
		)
	}

	log.Debug("fetched SAM notices", zap.Int("count", len(out)))
	return out, nil
}

func (s *SAM) searchURL(naics, ptype string, offset int) string {
	now := s.opts.Now()
	q := url.Values{}
	q.Set("api_key", s.opts.APIKey)
	q.Set("ncode", naics)
	q.Set("ptype", ptype)
	q.Set("postedFrom", now.AddDate(0, 0, -s.opts.LookbackDays).Format(samDateLayout))
	q.Set("postedTo", now.Format(samDateLayout))
	q.Set("limit", strconv.Itoa(s.opts.PageSize))
	q.Set("offset", strconv.Itoa(offset))
	return s.opts.BaseURL + "?" + q.Encode()
}

func (s *SAM) get(ctx context.Context, rawURL string) ([]byte, error) {
	body, err := s.f.Download(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, eris.Wrap(err, "read response body")
	}
	return data, nil
}

// samSearchResponse is the SAM.gov search API response.
type samSearchResponse struct {
	TotalRecords      int         `json:"totalRecords"`
	OpportunitiesData []samNotice `json:"opportunitiesData"`
}

type samNotice struct {
	NoticeID           string    `json:"noticeId"`
	Title              string    `json:"title"`
	SolicitationNumber string    `json:"solicitationNumber"`
	FullParentPathName string    `json:"fullParentPathName"`
	PostedDate         string    `json:"postedDate"`
	ResponseDeadline   string    `json:"responseDeadLine"`
	NAICSCode          string    `json:"naicsCode"`
	Type               string    `json:"type"`
	TypeOfSetAside     string    `json:"typeOfSetAside"`
	UILink             string    `json:"uiLink"`
	Description        string    `json:"description"`
	PlaceOfPerformance *samPlace `json:"placeOfPerformance"`
	Award              *samAward `json:"award"`
}

type samPlace struct {
	State *samCode `json:"state"`
}

type samCode struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type samAward struct {
	Amount  flexAmount  `json:"amount"`
	Awardee *samAwardee `json:"awardee"`
}

type samAwardee struct {
	Name string `json:"name"`
}

// flexAmount accepts award amounts encoded as numbers or strings like "$1,250,000.00".
type flexAmount struct {
	v *float64
}

func (a *flexAmount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			// Unparseable amounts are dropped rather than failing the page.
			return nil
		}
		a.v = &f
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	a.v = &f
	return nil
}

func parseSearchResponse(data []byte) (*samSearchResponse, error) {
	var resp samSearchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, eris.Wrap(err, "unmarshal JSON")
	}
	return &resp, nil
}

func (s *SAM) toRaw(ctx context.Context, n samNotice) model.RawOpportunity {
	raw := model.RawOpportunity{
		ExternalID:         n.NoticeID,
		Title:              strings.TrimSpace(n.Title),
		SolicitationNumber: strings.TrimSpace(n.SolicitationNumber),
		PostedDate:         n.PostedDate,
		ResponseDeadline:   n.ResponseDeadline,
		NAICSCode:          n.NAICSCode,
		Type:               n.Type,
		URL:                n.UILink,
		Agency:             n.FullParentPathName,
		SetAside:           n.TypeOfSetAside,
	}
	if n.PlaceOfPerformance != nil && n.PlaceOfPerformance.State != nil {
		raw.PlaceOfPerformanceState = n.PlaceOfPerformance.State.Code
	}
	if n.Award != nil {
		raw.AwardAmount = n.Award.Amount.v
		if n.Award.Awardee != nil {
			raw.Awardee = strings.TrimSpace(n.Award.Awardee.Name)
		}
	}

	raw.Description = s.description(ctx, n)
	raw.RequiresClearance, raw.RequiresITAR = DetectRequirements(raw.Title + " " + raw.Description)
	return raw
}

// description resolves the notice description. The search API usually
// returns a link to the description endpoint rather than the text itself.
func (s *SAM) description(ctx context.Context, n samNotice) string {
	d := strings.TrimSpace(n.Description)
	if !strings.HasPrefix(d, "http://") && !strings.HasPrefix(d, "https://") {
		return HTMLToText(d)
	}
	if !s.opts.FetchDescriptions {
		return ""
	}

	u, err := url.Parse(d)
	if err != nil {
		return ""
	}
	q := u.Query()
	q.Set("api_key", s.opts.APIKey)
	u.RawQuery = q.Encode()

	data, err := s.get(ctx, u.String())
	if err != nil {
		s.log.Debug("description fetch failed",
			zap.String("notice_id", n.NoticeID),
			zap.Error(err),
		)
		return ""
	}

	var body struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		// Some notices return the HTML directly.
		return HTMLToText(string(data))
	}
	return HTMLToText(body.Description)
}
