package app

import "github.com/unclebandit/campaign-mailer/internal/model"

// DemoContacts is the sample audience loaded into fresh stores.
func DemoContacts() []model.Contact {
	return []model.Contact{
		{FirstName: "Maya", LastName: "Lin", Email: "maya@lincoolair.test", Company: "Lin Cool Air", Industry: "HVAC", Location: "Austin, TX", LeadSource: "website", Tags: []string{"hvac", "local"}, IsSubscribed: true, EngagementScore: 72},
		{FirstName: "Omar", LastName: "Haddad", Email: "omar@brightsmiles.test", Company: "Bright Smiles Dental", Industry: "Dental", Location: "Round Rock, TX", LeadSource: "referral", Tags: []string{"dental"}, IsSubscribed: true, EngagementScore: 55},
		{FirstName: "", LastName: "", Email: "info@riverbendroofing.test", Company: "", Industry: "Roofing", Location: "Georgetown, TX", LeadSource: "directory", Tags: []string{"roofing", "local"}, IsSubscribed: true},
		{FirstName: "Priya", LastName: "Nair", Email: "priya@nairlaw.test", Company: "Nair Law Group", Industry: "Legal", Location: "Austin, TX", LeadSource: "webinar", Tags: []string{"legal"}, IsSubscribed: false, EngagementScore: 10},
		{FirstName: "Luis", LastName: "Ortega", Email: "", Company: "Ortega Landscaping", Industry: "Landscaping", Location: "Pflugerville, TX", LeadSource: "cold_call", Tags: []string{"local"}, IsSubscribed: true},
	}
}
