package catalog

import (
	"github.com/shopspring/decimal"

	"tuition-credits/internal/model"
)

func text(en, bn string) model.LocalizedText {
	return model.LocalizedText{EN: en, BN: bn}
}

func taka(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount)
}

// Defaults returns the built-in packages in display order: one free trial
// package and three paid packages per role.
func Defaults() []model.Package {
	return []model.Package{
		{
			ID:       "teacher-free-trial",
			Name:     text("Free Trial", "ফ্রি ট্রায়াল"),
			Credits:  20,
			Price:    decimal.Zero,
			UserType: model.UserTeacher,
			IsFree:   true,
			Features: []model.LocalizedText{
				text("2 job applications", "২টি চাকরির আবেদন"),
				text("Basic profile", "বেসিক প্রোফাইল"),
			},
		},
		{
			ID:       "teacher-starter",
			Name:     text("Starter", "স্টার্টার"),
			Credits:  50,
			Price:    taka(99),
			UserType: model.UserTeacher,
			Features: []model.LocalizedText{
				text("5 job applications", "৫টি চাকরির আবেদন"),
				text("Contact 10 guardians", "১০ জন অভিভাবকের সাথে যোগাযোগ"),
			},
		},
		{
			ID:       "teacher-popular",
			Name:     text("Popular", "জনপ্রিয়"),
			Credits:  120,
			Bonus:    20,
			Price:    taka(199),
			UserType: model.UserTeacher,
			Popular:  true,
			Features: []model.LocalizedText{
				text("14 job applications", "১৪টি চাকরির আবেদন"),
				text("20 bonus credits", "২০ বোনাস ক্রেডিট"),
				text("Video meetings", "ভিডিও মিটিং"),
			},
		},
		{
			ID:       "teacher-pro",
			Name:     text("Pro", "প্রো"),
			Credits:  300,
			Bonus:    60,
			Price:    taka(449),
			UserType: model.UserTeacher,
			Features: []model.LocalizedText{
				text("36 job applications", "৩৬টি চাকরির আবেদন"),
				text("60 bonus credits", "৬০ বোনাস ক্রেডিট"),
				text("Priority support", "অগ্রাধিকার সহায়তা"),
			},
		},
		{
			ID:       "guardian-free-trial",
			Name:     text("Free Trial", "ফ্রি ট্রায়াল"),
			Credits:  30,
			Price:    decimal.Zero,
			UserType: model.UserGuardian,
			IsFree:   true,
			Features: []model.LocalizedText{
				text("3 job posts", "৩টি চাকরির পোস্ট"),
			},
		},
		{
			ID:       "guardian-basic",
			Name:     text("Basic", "বেসিক"),
			Credits:  60,
			Price:    taka(99),
			UserType: model.UserGuardian,
			Features: []model.LocalizedText{
				text("6 job posts", "৬টি চাকরির পোস্ট"),
				text("Contact 12 teachers", "১২ জন শিক্ষকের সাথে যোগাযোগ"),
			},
		},
		{
			ID:       "guardian-family",
			Name:     text("Family", "ফ্যামিলি"),
			Credits:  150,
			Bonus:    25,
			Price:    taka(249),
			UserType: model.UserGuardian,
			Popular:  true,
			Features: []model.LocalizedText{
				text("17 job posts", "১৭টি চাকরির পোস্ট"),
				text("25 bonus credits", "২৫ বোনাস ক্রেডিট"),
				text("Video meetings", "ভিডিও মিটিং"),
			},
		},
		{
			ID:       "guardian-premium",
			Name:     text("Premium", "প্রিমিয়াম"),
			Credits:  400,
			Bonus:    100,
			Price:    taka(599),
			UserType: model.UserGuardian,
			Features: []model.LocalizedText{
				text("50 job posts", "৫০টি চাকরির পোস্ট"),
				text("100 bonus credits", "১০০ বোনাস ক্রেডিট"),
				text("Dedicated support", "ডেডিকেটেড সহায়তা"),
			},
		},
	}
}
