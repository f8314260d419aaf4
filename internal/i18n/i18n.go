// Package i18n renders language-neutral ledger facts (reason codes,
// transaction types, bilingual package text) in English or Bengali.
package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"tuition-credits/internal/model"
)

// Supported lists the available locales; the first is the last-resort
// fallback.
var Supported = []language.Tag{language.English, language.Bengali}

type pair struct {
	en, bn string
}

// Reason descriptions without a reference.
var plainReasons = map[model.ReasonCode]pair{
	model.ReasonSignupBonus:       {"Signup bonus", "সাইনআপ বোনাস"},
	model.ReasonPackagePurchase:   {"Package purchase", "প্যাকেজ ক্রয়"},
	model.ReasonJobApplication:    {"Job application", "চাকরির আবেদন"},
	model.ReasonJobPost:           {"Job post", "চাকরির পোস্ট"},
	model.ReasonContactView:       {"Contact details viewed", "যোগাযোগের তথ্য দেখা হয়েছে"},
	model.ReasonHireInvitation:    {"Hire invitation", "নিয়োগের আমন্ত্রণ"},
	model.ReasonVideoMeeting:      {"30-minute video meeting", "৩০ মিনিটের ভিডিও মিটিং"},
	model.ReasonProfileComplete:   {"Profile completion reward", "প্রোফাইল সম্পূর্ণ করার পুরস্কার"},
	model.ReasonPhoneVerified:     {"Phone verification reward", "ফোন যাচাইয়ের পুরস্কার"},
	model.ReasonEmailVerified:     {"Email verification reward", "ইমেইল যাচাইয়ের পুরস্কার"},
	model.ReasonNIDVerified:       {"NID verification reward", "এনআইডি যাচাইয়ের পুরস্কার"},
	model.ReasonEducationVerified: {"Education verification reward", "শিক্ষাগত যোগ্যতা যাচাইয়ের পুরস্কার"},
	model.ReasonTuitionMilestone:  {"Tuition milestone reward", "টিউশন মাইলফলক পুরস্কার"},
	model.ReasonAdminOverride:     {"Balance adjusted by admin", "অ্যাডমিন কর্তৃক ব্যালেন্স সমন্বয়"},
}

// Reason descriptions that mention the reference. Arguments are the
// reference id and, for hires, the counterpart.
var refReasons = map[model.ReasonCode]pair{
	model.ReasonPackagePurchase:  {"Purchased package %s", "%s প্যাকেজ ক্রয়"},
	model.ReasonJobApplication:   {"Applied to job %s", "চাকরি %s-এ আবেদন"},
	model.ReasonJobPost:          {"Posted job %s", "চাকরি %s পোস্ট করা হয়েছে"},
	model.ReasonContactView:      {"Viewed contact details of %s", "%s-এর যোগাযোগের তথ্য দেখা হয়েছে"},
	model.ReasonHireInvitation:   {"Hire invitation for job %s to %s", "চাকরি %[1]s-এর জন্য %[2]s-কে নিয়োগের আমন্ত্রণ"},
	model.ReasonVideoMeeting:     {"Video meeting with %s", "%s-এর সাথে ভিডিও মিটিং"},
	model.ReasonTuitionMilestone: {"Milestone reward: %s tuitions confirmed", "মাইলফলক পুরস্কার: %sটি টিউশন নিশ্চিত"},
}

// The first milestone reads as a single tuition rather than a count.
var firstMilestone = pair{"Milestone reward: first tuition confirmed", "মাইলফলক পুরস্কার: প্রথম টিউশন নিশ্চিত"}

const firstMilestoneKey = "reason.tuition_milestone.first"

var typeLabels = map[model.TxType]pair{
	model.TxEarned:        {"Earned", "অর্জিত"},
	model.TxSpent:         {"Spent", "খরচ"},
	model.TxPurchased:     {"Purchased", "ক্রয়কৃত"},
	model.TxBonus:         {"Bonus", "বোনাস"},
	model.TxAdminAdded:    {"Admin added", "অ্যাডমিন যোগ করেছে"},
	model.TxAdminDeducted: {"Admin deducted", "অ্যাডমিন কেটেছে"},
}

func plainKey(r model.ReasonCode) string { return "reason." + string(r) }
func refKey(r model.ReasonCode) string   { return "reason." + string(r) + ".ref" }
func typeKey(t model.TxType) string      { return "type." + string(t) }

// Translator resolves locales and renders ledger text.
type Translator struct {
	cat      *catalog.Builder
	matcher  language.Matcher
	fallback language.Tag
}

// New creates a Translator whose fallback locale is defaultLocale
// ("en" or "bn").
func New(defaultLocale string) (*Translator, error) {
	fallback, err := Parse(defaultLocale)
	if err != nil {
		return nil, err
	}

	cat := catalog.NewBuilder(catalog.Fallback(language.English))
	set := func(key string, p pair) error {
		if err := cat.SetString(language.English, key, p.en); err != nil {
			return err
		}
		return cat.SetString(language.Bengali, key, p.bn)
	}
	for r, p := range plainReasons {
		if err := set(plainKey(r), p); err != nil {
			return nil, fmt.Errorf("failed to build message catalog: %w", err)
		}
	}
	for r, p := range refReasons {
		if err := set(refKey(r), p); err != nil {
			return nil, fmt.Errorf("failed to build message catalog: %w", err)
		}
	}
	if err := set(firstMilestoneKey, firstMilestone); err != nil {
		return nil, fmt.Errorf("failed to build message catalog: %w", err)
	}
	for typ, p := range typeLabels {
		if err := set(typeKey(typ), p); err != nil {
			return nil, fmt.Errorf("failed to build message catalog: %w", err)
		}
	}

	return &Translator{
		cat:      cat,
		matcher:  language.NewMatcher(Supported),
		fallback: fallback,
	}, nil
}

// Parse maps a locale code to a supported tag.
func Parse(code string) (language.Tag, error) {
	tag, err := language.Parse(code)
	if err != nil {
		return language.Und, fmt.Errorf("invalid locale %q: %w", code, err)
	}
	_, idx, conf := language.NewMatcher(Supported).Match(tag)
	if conf == language.No {
		return language.Und, fmt.Errorf("unsupported locale %q", code)
	}
	return Supported[idx], nil
}

// Fallback returns the default locale.
func (t *Translator) Fallback() language.Tag {
	return t.fallback
}

// Match picks the best supported locale for an Accept-Language style value
// such as "bn-BD,bn;q=0.9,en;q=0.8". Empty or unmatched input gives the
// default locale.
func (t *Translator) Match(accept string) language.Tag {
	if strings.TrimSpace(accept) == "" {
		return t.fallback
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return t.fallback
	}
	_, idx, conf := t.matcher.Match(tags...)
	if conf == language.No {
		return t.fallback
	}
	return Supported[idx]
}

func (t *Translator) normalize(tag language.Tag) language.Tag {
	_, idx, conf := t.matcher.Match(tag)
	if conf == language.No {
		return t.fallback
	}
	return Supported[idx]
}

func (t *Translator) printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(t.normalize(tag), message.Catalog(t.cat))
}

// Describe renders the reason of tx.
func (t *Translator) Describe(tag language.Tag, tx model.Transaction) string {
	p := t.printer(tag)

	if ref := tx.RelatedTo; ref != nil {
		if _, ok := refReasons[tx.Reason]; ok {
			if tx.Reason == model.ReasonTuitionMilestone && ref.ID == "1" {
				return p.Sprintf(firstMilestoneKey)
			}
			if tx.Reason == model.ReasonHireInvitation {
				return p.Sprintf(refKey(tx.Reason), ref.ID, ref.Counterpart)
			}
			return p.Sprintf(refKey(tx.Reason), ref.ID)
		}
	}
	if _, ok := plainReasons[tx.Reason]; ok {
		return p.Sprintf(plainKey(tx.Reason))
	}
	return string(tx.Reason)
}

// TypeLabel renders a transaction type.
func (t *Translator) TypeLabel(tag language.Tag, typ model.TxType) string {
	if _, ok := typeLabels[typ]; !ok {
		return string(typ)
	}
	return t.printer(tag).Sprintf(typeKey(typ))
}

// Text picks the rendering of bilingual catalog text for tag, falling back
// to English when the Bengali text is empty.
func (t *Translator) Text(tag language.Tag, lt model.LocalizedText) string {
	if t.normalize(tag) == language.Bengali && lt.BN != "" {
		return lt.BN
	}
	return lt.EN
}
