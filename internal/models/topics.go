package models

// Topic is one of the fixed taxonomy categories used to partition course
// knowledge. The taxonomy is closed; there is no runtime topic creation.
type Topic int

const (
	TopicSegmentation Topic = iota
	TopicTargeting
	TopicPositioning
	TopicMarketingMix
	TopicStrategy
)

// Topics returns the full taxonomy in canonical order.
func Topics() []Topic {
	return []Topic{
		TopicSegmentation,
		TopicTargeting,
		TopicPositioning,
		TopicMarketingMix,
		TopicStrategy,
	}
}

func (t Topic) String() string { return t.Name() }

// Name is the display name, also used as the stored collection name.
func (t Topic) Name() string {
	switch t {
	case TopicSegmentation:
		return "Market Segmentation"
	case TopicTargeting:
		return "Targeting"
	case TopicPositioning:
		return "Differentiation & Positioning"
	case TopicMarketingMix:
		return "Marketing Mix (4Ps)"
	case TopicStrategy:
		return "Marketing Strategy & Planning"
	}
	return "Unknown"
}

// Description seeds the topic's reference embedding for nearest-topic
// classification; it is never shown to users.
func (t Topic) Description() string {
	switch t {
	case TopicSegmentation:
		return "Defining market segmentation, types of segmentation (demographic, geographic, psychographic, behavioral)."
	case TopicTargeting:
		return "Market targeting strategies, choosing a target market, evaluating segments."
	case TopicPositioning:
		return "Positioning strategy, points of differentiation, value proposition."
	case TopicMarketingMix:
		return "Product strategy, pricing strategy, placement/distribution, promotion strategy."
	case TopicStrategy:
		return "Customer-driven marketing strategy, strategic planning process, competitive advantage."
	}
	return ""
}

// TopicByName resolves a stored collection name back to its Topic.
func TopicByName(name string) (Topic, bool) {
	for _, t := range Topics() {
		if t.Name() == name {
			return t, true
		}
	}
	return 0, false
}
