// Package extract implements the heuristics that turn billing emails into
// subscription candidates: service identification, price extraction,
// currency and billing cycle detection, and next-billing projection.
package extract

import "strings"

// Service is a known subscription service from the directory.
type Service struct {
	Name     string
	Category string
}

type directoryEntry struct {
	domain  string
	service Service
}

// The directory is an ordered list rather than a map so lookups are
// deterministic; first match wins.
var knownServices = []directoryEntry{
	{"netflix.com", Service{"Netflix", "Streaming"}},
	{"spotify.com", Service{"Spotify", "Music"}},
	{"apple.com", Service{"Apple", "Software"}},
	{"google.com", Service{"Google One", "Software"}},
	{"amazon.com", Service{"Amazon Prime", "Streaming"}},
	{"primevideo.com", Service{"Amazon Prime Video", "Streaming"}},
	{"hulu.com", Service{"Hulu", "Streaming"}},
	{"disneyplus.com", Service{"Disney+", "Streaming"}},
	{"hbomax.com", Service{"HBO Max", "Streaming"}},
	{"max.com", Service{"Max", "Streaming"}},
	{"youtube.com", Service{"YouTube Premium", "Streaming"}},
	{"notion.so", Service{"Notion", "Software"}},
	{"notion.com", Service{"Notion", "Software"}},
	{"figma.com", Service{"Figma", "Software"}},
	{"github.com", Service{"GitHub", "Software"}},
	{"slack.com", Service{"Slack", "Software"}},
	{"zoom.us", Service{"Zoom", "Software"}},
	{"dropbox.com", Service{"Dropbox", "Software"}},
	{"adobe.com", Service{"Adobe Creative Cloud", "Software"}},
	{"microsoft.com", Service{"Microsoft 365", "Software"}},
	{"office.com", Service{"Microsoft 365", "Software"}},
	{"openai.com", Service{"ChatGPT Plus", "Software"}},
	{"anthropic.com", Service{"Claude Pro", "Software"}},
	{"canva.com", Service{"Canva Pro", "Software"}},
	{"grammarly.com", Service{"Grammarly", "Software"}},
	{"linkedin.com", Service{"LinkedIn Premium", "Software"}},
	{"medium.com", Service{"Medium", "Other"}},
	{"patreon.com", Service{"Patreon", "Other"}},
	{"twitch.tv", Service{"Twitch", "Streaming"}},
	{"playstation.com", Service{"PlayStation Plus", "Gaming"}},
	{"xbox.com", Service{"Xbox Game Pass", "Gaming"}},
	{"nintendo.com", Service{"Nintendo Switch Online", "Gaming"}},
	{"audible.com", Service{"Audible", "Other"}},
	{"scribd.com", Service{"Scribd", "Other"}},
	{"masterclass.com", Service{"MasterClass", "Other"}},
	{"skillshare.com", Service{"Skillshare", "Other"}},
	{"coursera.org", Service{"Coursera", "Other"}},
	{"udemy.com", Service{"Udemy", "Other"}},
	{"nordvpn.com", Service{"NordVPN", "Software"}},
	{"expressvpn.com", Service{"ExpressVPN", "Software"}},
	{"1password.com", Service{"1Password", "Software"}},
	{"lastpass.com", Service{"LastPass", "Software"}},
	{"bitwarden.com", Service{"Bitwarden", "Software"}},
	{"evernote.com", Service{"Evernote", "Software"}},
	{"todoist.com", Service{"Todoist", "Software"}},
	{"asana.com", Service{"Asana", "Software"}},
	{"trello.com", Service{"Trello", "Software"}},
	{"monday.com", Service{"Monday.com", "Software"}},
	{"calendly.com", Service{"Calendly", "Software"}},
	{"mailchimp.com", Service{"Mailchimp", "Software"}},
	{"hubspot.com", Service{"HubSpot", "Software"}},
	{"salesforce.com", Service{"Salesforce", "Software"}},
	{"zendesk.com", Service{"Zendesk", "Software"}},
	{"intercom.com", Service{"Intercom", "Software"}},
	{"vercel.com", Service{"Vercel", "Software"}},
	{"netlify.com", Service{"Netlify", "Software"}},
	{"heroku.com", Service{"Heroku", "Software"}},
	{"digitalocean.com", Service{"DigitalOcean", "Software"}},
	{"aws.amazon.com", Service{"AWS", "Software"}},
	{"cloud.google.com", Service{"Google Cloud", "Software"}},
	{"azure.microsoft.com", Service{"Azure", "Software"}},
	{"supabase.com", Service{"Supabase", "Software"}},
	{"firebase.google.com", Service{"Firebase", "Software"}},
	{"stripe.com", Service{"Stripe", "Software"}},
	{"paddle.com", Service{"Paddle", "Software"}},
	{"hotstar.com", Service{"Disney+ Hotstar", "Streaming"}},
	{"jiocinema.com", Service{"JioCinema", "Streaming"}},
	{"sonyliv.com", Service{"SonyLIV", "Streaming"}},
	{"zee5.com", Service{"ZEE5", "Streaming"}},
	{"voot.com", Service{"Voot", "Streaming"}},
}

// LookupService matches the sender address, subject and body against the
// known-services directory. The full domain is matched against sender and
// subject; only the domain's leading label is matched against the body, to
// cut false positives from incidental mentions. Returns false on a miss.
func LookupService(fromAddr, subject, body string) (Service, bool) {
	lowerFrom := strings.ToLower(fromAddr)
	lowerSubject := strings.ToLower(subject)
	lowerBody := strings.ToLower(body)

	for _, entry := range knownServices {
		label := entry.domain
		if i := strings.IndexByte(label, '.'); i > 0 {
			label = label[:i]
		}
		if strings.Contains(lowerFrom, entry.domain) ||
			strings.Contains(lowerSubject, entry.domain) ||
			strings.Contains(lowerBody, label) {
			return entry.service, true
		}
	}

	return Service{}, false
}

// ServiceCategory returns the directory category for a service name, or ""
// when the name is not in the directory.
func ServiceCategory(name string) string {
	for _, entry := range knownServices {
		if entry.service.Name == name {
			return entry.service.Category
		}
	}
	return ""
}
