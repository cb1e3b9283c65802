package mailbox

// Query is a provider-neutral message search. Terms within each field and
// across fields are OR'd; each provider renders the query into its own
// search syntax.
type Query struct {
	Subjects []string // match any term against the subject
	Froms    []string // match any term against the sender
	Phrases  []string // match any phrase anywhere in the message
}

// BillingQueries is the fixed ordered list of searches one scan issues.
// The variants are chosen for recall: billing emails reliably carry one
// of these subject words, sender labels, or phrases.
func BillingQueries() []Query {
	return []Query{
		{Subjects: []string{"subscription", "receipt", "payment", "invoice", "billing", "renewal", "charged"}},
		{Froms: []string{"noreply", "no-reply", "billing", "payments", "receipt", "invoice"}},
		{Subjects: []string{"monthly", "annual", "yearly"}},
		{Phrases: []string{"your subscription", "payment received", "receipt for", "invoice for"}},
		{Phrases: []string{"auto-renewal", "renewed", "next billing"}},
	}
}
