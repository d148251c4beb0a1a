package notifier

// Template names accepted by Mailer.SendTemplate and Mailer.SendTest
const (
	TemplateConfirmation = "confirmation"
	TemplateMagicLink    = "magic_link"
	TemplateEmailChange  = "email_change"
)

// Template holds the static copy for one transactional email
type Template struct {
	Subject     string
	PreviewText string
	Heading     string
	BodyText    string
	ActionText  string
	ActionPath  string
}

// Templates is the catalog of transactional emails
var Templates = map[string]Template{
	TemplateConfirmation: {
		Subject:     "Confirm your subscription",
		PreviewText: "Please confirm your newsletter subscription",
		Heading:     "Confirm Your Subscription",
		BodyText:    "Thank you for subscribing! Click the button below to confirm your subscription.",
		ActionText:  "Confirm Subscription",
		ActionPath:  "/confirm",
	},
	TemplateMagicLink: {
		Subject:     "Your profile access link",
		PreviewText: "Access your subscriber profile",
		Heading:     "Your Profile Access Link",
		BodyText:    "Click the button below to access your subscriber profile. This link expires in 15 minutes.",
		ActionText:  "Access Profile",
		ActionPath:  "/profile",
	},
	TemplateEmailChange: {
		Subject:     "Confirm your email change",
		PreviewText: "Confirm your email address change",
		Heading:     "Confirm Email Change",
		BodyText:    "Click the button below to confirm your new email address for the newsletter.",
		ActionText:  "Confirm Email Change",
		ActionPath:  "/confirm",
	},
}

// Content renders the template against a base URL and action token
func (t Template) Content(baseURL, token string) EmailContent {
	return EmailContent{
		PreviewText: t.PreviewText,
		Heading:     t.Heading,
		BodyText:    t.BodyText,
		ActionURL:   baseURL + t.ActionPath + "?token=" + token,
		ActionText:  t.ActionText,
	}
}

// TemplateNames lists the valid template identifiers
func TemplateNames() []string {
	names := make([]string, 0, len(Templates))
	for name := range Templates {
		names = append(names, name)
	}
	return names
}
