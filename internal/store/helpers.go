package store

import (
	"database/sql"

	"mintada/internal/catalog"
)

const sampleColumns = "id, coin_type_id, obverse_image, reverse_image, sample_type, removed, is_holder, is_counterstamped, is_roll, contains_holder, contains_text, is_multi_coin"

const coinColumns = "ct.id, ct.issuer_id, i.url_slug, ct.title, ct.subtitle, ct.coin_type_slug, ct.period, ct.fixed"

const issuerColumns = "id, name, url_slug, parent_url_slug, territory_type, is_section, is_historical_period"

const rulerColumns = "id, ruler_id, issuer_name, name, years_text, period, period_order, subperiod_order, issuer_id, is_manual"

type scanner interface{ Scan(dest ...any) error }

func scanSample(row scanner) (catalog.Sample, error) {
	var (
		s                                       catalog.Sample
		obverse, reverse                        sql.NullString
		sampleType                              int
		removed, holder, counterstamped, roll   int
		containsHolder, containsText, multiCoin int
	)
	if err := row.Scan(
		&s.ID,
		&s.CoinTypeID,
		&obverse,
		&reverse,
		&sampleType,
		&removed,
		&holder,
		&counterstamped,
		&roll,
		&containsHolder,
		&containsText,
		&multiCoin,
	); err != nil {
		return catalog.Sample{}, err
	}
	s.ObverseImage = obverse.String
	s.ReverseImage = reverse.String
	s.Type = catalog.SampleType(sampleType)
	s.Removed = removed != 0
	s.Tags = catalog.Tags{
		Holder:         holder != 0,
		Counterstamped: counterstamped != 0,
		Roll:           roll != 0,
		ContainsHolder: containsHolder != 0,
		ContainsText:   containsText != 0,
		MultiCoin:      multiCoin != 0,
	}
	return s, nil
}

func scanCoin(row scanner) (*catalog.Coin, error) {
	var (
		c                catalog.Coin
		subtitle, period sql.NullString
		fixed            int
	)
	if err := row.Scan(&c.ID, &c.IssuerID, &c.IssuerSlug, &c.Title, &subtitle, &c.Slug, &period, &fixed); err != nil {
		return nil, err
	}
	c.Subtitle = subtitle.String
	c.Period = period.String
	c.Fixed = fixed != 0
	return &c, nil
}

func scanIssuer(row scanner) (catalog.Issuer, error) {
	var (
		i                   catalog.Issuer
		parent, territory   sql.NullString
		section, historical int
	)
	if err := row.Scan(&i.ID, &i.Name, &i.Slug, &parent, &territory, &section, &historical); err != nil {
		return catalog.Issuer{}, err
	}
	i.ParentSlug = parent.String
	i.TerritoryType = territory.String
	i.IsSection = section != 0
	i.IsHistoricalPeriod = historical != 0
	return i, nil
}

func scanRuler(row scanner) (catalog.Ruler, error) {
	var (
		r             catalog.Ruler
		years, period sql.NullString
		issuerID      sql.NullInt64
		manual        int
	)
	if err := row.Scan(&r.RowID, &r.RulerID, &r.IssuerLabel, &r.Name, &years, &period, &r.PeriodOrder, &r.SubperiodOrder, &issuerID, &manual); err != nil {
		return catalog.Ruler{}, err
	}
	r.YearsText = years.String
	r.Period = period.String
	if issuerID.Valid {
		id := issuerID.Int64
		r.IssuerID = &id
	}
	r.IsManual = manual != 0
	return r, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt64(value *int64) any {
	if value == nil {
		return nil
	}
	return *value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func int64Args(values []int64) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}
