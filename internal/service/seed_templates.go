package service

import "github.com/unclebandit/campaign-mailer/internal/model"

// DefaultTemplates is the fixed template set every store starts with.
func DefaultTemplates() []model.Template {
	return []model.Template{
		{
			Name:     "Welcome to the agency",
			Subject:  "Welcome aboard, {{firstName}}!",
			Category: model.CategoryWelcome,
			Content: `Hi {{firstName}},

Thanks for connecting with us. We help companies like {{company}} turn their website into a steady source of new customers.

Here is what you can expect from us:
✓ A free audit of your current online presence
✓ A clear, no-jargon growth plan
✓ Monthly reports you can actually read

I'll be your point of contact, so reply any time.

{{senderName}}
{{senderEmail}}`,
			Variables: []string{"firstName", "company", "senderName", "senderEmail"},
			IsActive:  true,
		},
		{
			Name:     "Friendly follow up",
			Subject:  "Following up, {{firstName}}",
			Category: model.CategoryFollowUp,
			Content: `Hi {{firstName}} {{lastName}},

I wanted to follow up on my last note about growing {{company}} online.

If now is not the right time, just let me know and I'll check back later.

{{senderName}}`,
			Variables: []string{"firstName", "lastName", "company", "senderName"},
			IsActive:  true,
		},
		{
			Name:     "Seasonal promotion",
			Subject:  "{{firstName}}, 20% off your first three months",
			Category: model.CategoryPromotion,
			Content: `Hi {{firstName}},

For a limited time we are offering {{company}} 20% off any of our monthly plans:
• Search engine optimization
• Paid social campaigns
• Website care and hosting

Reply to this email or reach me at {{senderEmail}} to claim the offer.`,
			Variables: []string{"firstName", "company", "senderEmail"},
			IsActive:  true,
		},
		{
			Name:     "Monthly newsletter",
			Subject:  "What's working in digital marketing this month",
			Category: model.CategoryNewsletter,
			Content: `Hi {{firstName}},

Here are three things we saw move the needle for our clients this month:
✓ Short-form video ads outperformed static images
✓ Local search listings drove more calls than ever
✓ Follow-up emails doubled reply rates

See you next month,
{{senderName}}`,
			Variables: []string{"firstName", "senderName"},
			IsActive:  true,
		},
		{
			Name:     "Service introduction",
			Subject:  "A quick idea for {{company}}",
			Category: model.CategoryServiceIntro,
			Content: `Hi {{firstName}},

I'm {{senderName}} and I work with businesses like {{company}} on their online growth.

We typically help with:
• Websites that convert visitors into leads
• Search and social advertising
• Reputation and review management

Would a 15 minute call next week make sense?`,
			Variables: []string{"firstName", "company", "senderName"},
			IsActive:  true,
		},
		{
			Name:     "Client testimonial",
			Subject:  "How a business like {{company}} doubled its leads",
			Category: model.CategoryTestimonial,
			Content: `Hi {{firstName}},

One of our clients, a family-owned contractor, came to us with an outdated website and almost no online leads.

Within six months:
✓ Organic traffic grew by 140%
✓ Monthly leads doubled
✓ Cost per lead dropped by a third

I'd love to show you how we could do the same for {{company}}.

{{senderName}}`,
			Variables: []string{"firstName", "company", "senderName"},
			IsActive:  true,
		},
	}
}
