package domain

import "strings"

// Category is a content/security label assigned to a registrable domain.
// The vocabulary is closed: classifier output that does not match one of
// the values below is coerced to CategoryUnknown.
type Category string

const (
	CategorySocialMedia     Category = "Social Media"
	CategoryNews            Category = "News"
	CategoryVideoStreaming  Category = "Video Streaming"
	CategoryEcommerce       Category = "E-commerce"
	CategorySoftwareDev     Category = "Software Development"
	CategoryCloudStorage    Category = "Cloud Storage"
	CategoryCommunication   Category = "Communication"
	CategorySearchEngine    Category = "Search Engine"
	CategoryPhishing        Category = "Phishing"
	CategoryMalware         Category = "Malware"
	CategorySuspicious      Category = "Suspicious"
	CategoryEncyclopedia    Category = "Encyclopedia"
	CategoryBusiness        Category = "Business"
	CategoryCDN             Category = "Content Delivery Network"
	CategoryAdultContent    Category = "Adult Content"
	CategoryPornography     Category = "Pornography"
	CategoryHealthcare      Category = "Healthcare"
	CategoryInformationTech Category = "Information Technology"
	CategoryTravel          Category = "Travel"
	CategoryEducation       Category = "Education"
	CategoryEntertainment   Category = "Entertainment"
	CategoryShopping        Category = "Shopping"
	CategoryVehicles        Category = "Vehicles"
	CategoryGames           Category = "Games"
	CategoryDrugs           Category = "Drugs"
	CategoryAIML            Category = "AI/ML"

	// CategoryUnknown is the explicit "could not determine" variant. It is a
	// normal member of the vocabulary: it is cached and policy-defaulted like
	// any other label.
	CategoryUnknown Category = "Unknown"
)

// vocabulary lists every assignable category except Unknown, in the order
// presented to the classifier.
var vocabulary = []Category{
	CategorySocialMedia,
	CategoryNews,
	CategoryVideoStreaming,
	CategoryEcommerce,
	CategorySoftwareDev,
	CategoryCloudStorage,
	CategoryCommunication,
	CategorySearchEngine,
	CategoryPhishing,
	CategoryMalware,
	CategorySuspicious,
	CategoryEncyclopedia,
	CategoryBusiness,
	CategoryCDN,
	CategoryAdultContent,
	CategoryPornography,
	CategoryHealthcare,
	CategoryInformationTech,
	CategoryTravel,
	CategoryEducation,
	CategoryEntertainment,
	CategoryShopping,
	CategoryVehicles,
	CategoryGames,
	CategoryDrugs,
	CategoryAIML,
}

// byFold maps case-folded labels to their canonical Category.
var byFold = func() map[string]Category {
	m := make(map[string]Category, len(vocabulary)+1)
	for _, c := range vocabulary {
		m[strings.ToLower(string(c))] = c
	}
	m[strings.ToLower(string(CategoryUnknown))] = CategoryUnknown
	return m
}()

// Categories returns the assignable vocabulary (Unknown excluded), suitable
// for prompt construction. The returned slice is a copy.
func Categories() []Category {
	out := make([]Category, len(vocabulary))
	copy(out, vocabulary)
	return out
}

// ParseCategory matches a label against the vocabulary, ignoring case and
// surrounding whitespace. Returns false when the label is not a member.
func ParseCategory(s string) (Category, bool) {
	c, ok := byFold[strings.ToLower(strings.TrimSpace(s))]
	return c, ok
}

func (c Category) String() string { return string(c) }
