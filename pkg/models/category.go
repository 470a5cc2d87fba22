package models

// CategoryOther is the reserved label for transactions that fit nothing else.
const CategoryOther = "Other"

// DefaultCategories is the closed set of category labels.
var DefaultCategories = []string{
	"Food",
	"Transport",
	"Shopping",
	"Bills",
	"Entertainment",
	"Health",
	"Education",
	"Investment",
	"Transfer",
	CategoryOther,
}

// DefaultCategoryDescriptions gives the model a one-line purpose per label.
var DefaultCategoryDescriptions = map[string]string{
	"Food":          "Restaurants, cafes, food delivery, groceries",
	"Transport":     "Cabs, fuel, metro, trains, flights, parking",
	"Shopping":      "Online and offline retail purchases",
	"Bills":         "Utilities, phone, internet, rent, subscriptions billed monthly",
	"Entertainment": "Movies, streaming, games, events",
	"Health":        "Pharmacies, clinics, hospitals, insurance premiums",
	"Education":     "Courses, books, tuition, exam fees",
	"Investment":    "Mutual funds, SIPs, stocks, deposits",
	"Transfer":      "Peer-to-peer transfers and self transfers between accounts",
	CategoryOther:   "Anything that fits no other category",
}
