package edgar

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/bighogz/insider-monitor/internal/models"
	"github.com/bighogz/insider-monitor/internal/normalize"
	"github.com/bighogz/insider-monitor/internal/source"
)

type ownershipDocument struct {
	XMLName        xml.Name             `xml:"ownershipDocument"`
	Issuer         issuer               `xml:"issuer"`
	Owners         []reportingOwner     `xml:"reportingOwner"`
	NonDerivatives []nonDerivativeTrade `xml:"nonDerivativeTable>nonDerivativeTransaction"`
}

type issuer struct {
	CIK    string `xml:"issuerCik"`
	Name   string `xml:"issuerName"`
	Symbol string `xml:"issuerTradingSymbol"`
}

type reportingOwner struct {
	Name         string       `xml:"reportingOwnerId>rptOwnerName"`
	Relationship relationship `xml:"reportingOwnerRelationship"`
}

type relationship struct {
	IsDirector        flag   `xml:"isDirector"`
	IsOfficer         flag   `xml:"isOfficer"`
	IsTenPercentOwner flag   `xml:"isTenPercentOwner"`
	IsOther           flag   `xml:"isOther"`
	OfficerTitle      string `xml:"officerTitle"`
	OtherText         string `xml:"otherText"`
}

type nonDerivativeTrade struct {
	Date          string `xml:"transactionDate>value"`
	Code          string `xml:"transactionCoding>transactionCode"`
	Shares        string `xml:"transactionAmounts>transactionShares>value"`
	PricePerShare string `xml:"transactionAmounts>transactionPricePerShare>value"`
}

// flag is a Form 4 boolean, written as "1", "0", "true" or "false".
type flag string

func (f flag) set() bool {
	v := strings.TrimSpace(strings.ToLower(string(f)))
	return v == "1" || v == "true"
}

// roleText describes the first reporting owner in words Role understands.
func (d *ownershipDocument) roleText() string {
	if len(d.Owners) == 0 {
		return ""
	}
	rel := d.Owners[0].Relationship
	var parts []string
	if t := strings.TrimSpace(rel.OfficerTitle); t != "" {
		parts = append(parts, normalize.Title(t))
	}
	if rel.IsDirector.set() {
		parts = append(parts, "Director")
	}
	if rel.IsTenPercentOwner.set() {
		parts = append(parts, "10% Owner")
	}
	if rel.IsOfficer.set() && strings.TrimSpace(rel.OfficerTitle) == "" {
		parts = append(parts, "Officer")
	}
	if rel.IsOther.set() && strings.TrimSpace(rel.OtherText) != "" {
		parts = append(parts, rel.OtherText)
	}
	return strings.Join(parts, ", ")
}

// parseForm4 extracts open-market purchases and sales from a Form 4 XML
// document. fallbackSymbol is used when the issuer symbol is blank.
func parseForm4(data []byte, fallbackSymbol string) ([]models.RawTransaction, error) {
	var doc ownershipDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse form 4: %w", err)
	}
	sym := strings.ToUpper(strings.TrimSpace(doc.Issuer.Symbol))
	if sym == "" || sym == "NONE" {
		sym = strings.ToUpper(fallbackSymbol)
	}
	role := doc.roleText()
	var insider string
	if len(doc.Owners) > 0 {
		insider = strings.TrimSpace(doc.Owners[0].Name)
	}

	out := make([]models.RawTransaction, 0, len(doc.NonDerivatives))
	for _, t := range doc.NonDerivatives {
		code := strings.ToUpper(strings.TrimSpace(t.Code))
		if code != "P" && code != "S" {
			continue
		}
		shares := normalize.Shares(t.Shares)
		price := normalize.Money(t.PricePerShare)
		tx := models.RawTransaction{
			Symbol:           sym,
			CompanyName:      strings.TrimSpace(doc.Issuer.Name),
			TransactionValue: shares * price,
			SharesTraded:     shares,
			SharesRatio:      normalize.SharesRatio(shares),
			ExecutiveRole:    normalize.Role(role),
			IsBuy:            code == "P",
			IsCeoOrCfo:       normalize.IsCeoOrCfo(role),
			InsiderName:      insider,
			Source:           "edgar",
		}
		if d, ok := source.ParseDate(strings.TrimSpace(t.Date)); ok {
			tx.TransactionDate = d
		}
		out = append(out, tx)
	}
	return out, nil
}
