package notify

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	keyApprovedTitle = "contribution approved title"
	keyApprovedBody  = "contribution of %s to case %s was approved"
	keyRejectedTitle = "contribution rejected title"
	keyRejectedBody  = "contribution of %s to case %s was rejected"
)

var messages *catalog.Builder

func init() {
	messages = catalog.NewBuilder(catalog.Fallback(language.Arabic))

	messages.SetString(language.Arabic, keyApprovedTitle, "تم قبول المساهمة")
	messages.SetString(language.Arabic, keyApprovedBody, "تم قبول مساهمة بمبلغ %s لصالح حالة %s")
	messages.SetString(language.Arabic, keyRejectedTitle, "تم رفض المساهمة")
	messages.SetString(language.Arabic, keyRejectedBody, "تم رفض مساهمة بمبلغ %s لحالة %s")

	messages.SetString(language.English, keyApprovedTitle, "Contribution approved")
	messages.SetString(language.English, keyApprovedBody, "A contribution of %s to case %s was approved")
	messages.SetString(language.English, keyRejectedTitle, "Contribution rejected")
	messages.SetString(language.English, keyRejectedBody, "A contribution of %s to case %s was rejected")
}

// localeTag maps a request locale onto a supported message language. Arabic
// is the default.
func localeTag(locale string) language.Tag {
	if locale == "en" {
		return language.English
	}
	return language.Arabic
}

func printer(locale string) *message.Printer {
	return message.NewPrinter(localeTag(locale), message.Catalog(messages))
}
