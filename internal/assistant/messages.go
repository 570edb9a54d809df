package assistant

import (
	"strings"

	"edulibrary/internal/domain"
)

// messages is the user-facing text of every outcome in one language.
// Lending failures are surfaced through these, never as raw errors.
type messages struct {
	borrowSuccess   string // title, date
	noMatch         string
	unknownBook     string
	alreadyBorrowed string // title, date
	loanLimit       string
	returnSuccess   string // title
	nothingToReturn string
	availabilityErr string
	available       string // title
	borrowedUntil   string // title, date
	recommendations string // joined titles
	noRecs          string
	noGeneratorKey  string
	generatorDown   string
	recordsDown     string
	unknownUser     string
}

var messagesEN = messages{
	borrowSuccess:   "✅ You borrowed %s, due back on %s.",
	noMatch:         "📘 No matching book was found to borrow.",
	unknownBook:     "❌ The book was not found in the catalog.",
	alreadyBorrowed: "📕 The book %s is currently borrowed until %s.",
	loanLimit:       "📘 You already have a borrowed book. Please return it first.",
	returnSuccess:   "✅ You returned %s.",
	nothingToReturn: "📘 You have no book to return.",
	availabilityErr: "📘 Availability cannot be checked right now.",
	available:       "✅ The book %s is available.",
	borrowedUntil:   "❌ The book %s is currently borrowed until %s.",
	recommendations: "📚 Suggestions for you: %s",
	noRecs:          "No recommendations right now.",
	noGeneratorKey:  "🔒 No OpenAI key found.",
	generatorDown:   "⚠️ The assistant is unavailable right now, please try again later.",
	recordsDown:     "⚠️ The library records are unavailable right now.",
	unknownUser:     "⚠️ Your profile was not found. Please contact the library.",
}

var messagesAR = messages{
	borrowSuccess:   "✅ تم استعارة الكتاب %s حتى تاريخ %s.",
	noMatch:         "📘 لم يتم العثور على كتاب للاستعارة.",
	unknownBook:     "❌ لم يتم العثور على الكتاب.",
	alreadyBorrowed: "📕 الكتاب %s مستعار حالياً حتى %s.",
	loanLimit:       "📘 لديك كتاب معار حاليًا. يرجى إرجاعه أولاً.",
	returnSuccess:   "✅ تم إرجاع الكتاب %s.",
	nothingToReturn: "📘 لا يوجد كتاب لإرجاعه.",
	availabilityErr: "📘 لا يمكن التحقق من التوفر الآن.",
	available:       "✅ الكتاب %s متاح.",
	borrowedUntil:   "❌ الكتاب %s مستعار حالياً حتى %s.",
	recommendations: "📚 مقترحات لك: %s",
	noRecs:          "لا توجد اقتراحات حالياً.",
	noGeneratorKey:  "🔒 لا يوجد مفتاح OpenAI مفعّل.",
	generatorDown:   "⚠️ المساعد غير متاح حالياً، يرجى المحاولة لاحقاً.",
	recordsDown:     "⚠️ سجلات المكتبة غير متاحة حالياً.",
	unknownUser:     "⚠️ لم يتم العثور على ملفك. يرجى مراجعة المكتبة.",
}

// messagesFor picks the message set from the user's preferred language,
// defaulting to English.
func messagesFor(user domain.User) messages {
	if strings.Contains(strings.ToLower(user.PreferredLanguage), "arab") {
		return messagesAR
	}
	return messagesEN
}
