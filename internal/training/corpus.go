package training

import (
	"fmt"
)

// EmailSample is one labelled training email
type EmailSample struct {
	Subject  string
	Body     string
	Sender   string
	Category string
	Priority string
}

// Text returns the subject and body in the form the models are trained on
func (s EmailSample) Text() string {
	return s.Subject + " " + s.Body
}

type template struct {
	subject  string
	body     string
	sender   string
	priority string
}

type categoryTemplates struct {
	category  string
	templates []template
}

// VariationsPerTemplate is the number of extra samples derived from each template
const VariationsPerTemplate = 5

var corpusTemplates = []categoryTemplates{
	{"Work", []template{
		{"Team Meeting Tomorrow", "Hi team, reminder about our project meeting tomorrow at 10am.", "manager@company.com", "Medium"},
		{"Urgent: Client Deadline", "The client needs the final report by EOD. Please prioritize this.", "boss@company.com", "High"},
		{"Project Update Required", "Can you send me an update on the current project status?", "colleague@company.com", "Medium"},
		{"Code Review Request", "Please review my pull request when you have time.", "developer@company.com", "Low"},
		{"Performance Review Meeting", "Scheduled your annual performance review for next Friday.", "hr@company.com", "High"},
	}},
	{"Personal", []template{
		{"Dinner this weekend?", "Hey! Want to grab dinner this Saturday? Let me know!", "friend@gmail.com", "Low"},
		{"Family reunion next month", "Mom is organizing a family reunion. Can you make it?", "sister@gmail.com", "Medium"},
		{"Birthday party invitation", "You're invited to my birthday party next Friday!", "john@gmail.com", "Medium"},
	}},
	{"Finance", []template{
		{"Your Credit Card Statement", "Your credit card statement is ready. Amount due: $1,234.56", "statements@bank.com", "High"},
		{"Payment Reminder", "This is a reminder that your payment of $500 is due in 3 days.", "billing@company.com", "High"},
		{"Transaction Alert", "A transaction of $89.99 was made on your account at Amazon.", "alerts@bank.com", "Low"},
		{"Invoice #12345", "Please find attached invoice for services rendered.", "accounts@vendor.com", "Medium"},
	}},
	{"Travel", []template{
		{"Flight Confirmation", "Your flight from NYC to LAX is confirmed for Dec 15.", "noreply@airline.com", "High"},
		{"Hotel Reservation Confirmed", "Your reservation at Hilton Hotel is confirmed.", "reservations@hilton.com", "Medium"},
		{"Check-in reminder", "You can now check in for your flight departing tomorrow.", "checkin@airline.com", "Medium"},
	}},
	{"Shopping", []template{
		{"Order Confirmation #12345", "Thanks for your order! Your items will ship within 2 days.", "orders@amazon.com", "Medium"},
		{"Your package is out for delivery", "Your package is out for delivery today.", "shipping@amazon.com", "Medium"},
		{"Item shipped", "Good news! Your order has shipped.", "noreply@store.com", "Low"},
	}},
	{"Promotions", []template{
		{"50% OFF SALE THIS WEEKEND!", "Don't miss our biggest sale! Save 50% on everything!", "marketing@store.com", "Low"},
		{"Exclusive offer just for you", "Enjoy 20% off your next purchase. Use code SAVE20", "deals@shop.com", "Low"},
		{"Weekly Newsletter", "Check out this week's featured products and special offers.", "newsletter@company.com", "Low"},
	}},
	{"Spam", []template{
		{"You've won $1,000,000!", "Congratulations! You've been selected. Click here to claim.", "winner@suspicious.com", "Low"},
		{"Urgent: Verify your account", "Your account will be closed unless you verify immediately.", "security@phishing.com", "High"},
		{"Make money from home!", "Work from home and earn $5000 per week! No experience needed.", "opportunity@scam.com", "Low"},
	}},
	{"Other", []template{
		{"Subscription confirmation", "You're now subscribed to our service. Welcome!", "welcome@service.com", "Low"},
		{"Password reset request", "Someone requested a password reset for your account.", "noreply@app.com", "Medium"},
		{"System maintenance notification", "Our system will be down for maintenance this Sunday.", "admin@service.com", "Low"},
	}},
}

// BuildCorpus expands the fixed templates into the training corpus.
// The order of samples is stable and the split depends on it.
func BuildCorpus() []EmailSample {
	var samples []EmailSample
	for _, group := range corpusTemplates {
		for _, t := range group.templates {
			sample := EmailSample{
				Subject:  t.subject,
				Body:     t.body,
				Sender:   t.sender,
				Category: group.category,
				Priority: t.priority,
			}
			samples = append(samples, sample)

			for i := 0; i < VariationsPerTemplate; i++ {
				variant := sample
				variant.Body = fmt.Sprintf("%s Additional context %d.", t.body, i)
				samples = append(samples, variant)
			}
		}
	}
	return samples
}

// SmokeCase is a fixed email classified after training as a sanity check
type SmokeCase struct {
	Subject          string
	Body             string
	ExpectedCategory string
	ExpectedPriority string
}

// SmokeCases returns the post-training sanity emails
func SmokeCases() []SmokeCase {
	return []SmokeCase{
		{"URGENT: Server Down", "Production server is down. Need immediate attention.", "Work", "High"},
		{"50% OFF Sale!", "Limited time offer on all items!", "Promotions", "Low"},
		{"Your package has shipped", "Order #123 is on the way", "Shopping", "Medium"},
	}
}
