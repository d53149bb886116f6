package anonid

// Word lists for generated display names.

var adjectives = []string{
	"Happy", "Brave", "Calm", "Clever", "Swift", "Bright", "Gentle", "Bold", "Quiet",
	"Lucky", "Sunny", "Witty", "Eager", "Fancy", "Jolly", "Kind", "Lively", "Mighty",
	"Noble", "Proud", "Quick", "Rapid", "Silent", "Steady", "Wise", "Zesty", "Agile",
	"Breezy", "Cheery", "Cosmic", "Daring", "Dreamy", "Electric", "Fearless", "Fierce",
	"Friendly", "Frosty", "Fuzzy", "Gallant", "Glowing", "Golden", "Graceful", "Grand",
	"Hardy", "Humble", "Icy", "Jazzy", "Keen", "Lunar", "Magic", "Mellow", "Merry", "Misty",
	"Modest", "Nimble", "Patient", "Peppy", "Plucky", "Polite", "Quirky", "Radiant",
	"Rustic", "Serene", "Sharp", "Shiny", "Silly", "Sleek", "Smooth", "Snappy", "Sparkly",
	"Speedy", "Spicy", "Spirited", "Splendid", "Stellar", "Stormy", "Sturdy", "Sublime",
	"Super", "Tidy", "Tranquil", "Trusty", "Upbeat", "Valiant", "Vivid", "Warm", "Wild",
	"Zany", "Amber", "Azure", "Bouncy", "Cozy", "Crimson", "Crystal", "Curious", "Dapper",
	"Dazzling", "Emerald", "Epic", "Fluffy", "Funky", "Gleaming", "Groovy", "Hasty",
	"Hidden", "Honest", "Jade", "Jovial", "Loyal", "Marvelous", "Mystic", "Neon", "Nifty",
	"Orange", "Pearl", "Perky", "Plush", "Prime", "Rosy", "Royal", "Ruby", "Sage",
	"Scarlet", "Shy", "Silver", "Solar", "Sonic", "Spry", "Stout", "Sunlit", "Swanky",
	"Teal", "Tender", "Thrifty", "Tiny", "Turbo", "Velvet", "Violet",
	"Ancient", "Blazing", "Brisk", "Charming", "Clear", "Crisp", "Glad", "Hearty", "Lush", "Polished", "Sincere", "Snowy", "Vast", "Wandering",
}

var nouns = []string{
	"Tiger", "Falcon", "Panda", "Otter", "Fox", "Wolf", "Eagle", "Bear", "Lion", "Hawk",
	"Owl", "Dolphin", "Whale", "Koala", "Lynx", "Raven", "Badger", "Beaver", "Bison",
	"Cheetah", "Cobra", "Coyote", "Crane", "Deer", "Dragon", "Duck", "Elk", "Ferret",
	"Finch", "Frog", "Gazelle", "Gecko", "Giraffe", "Goose", "Gorilla", "Hedgehog", "Heron",
	"Hippo", "Horse", "Hyena", "Ibis", "Iguana", "Jaguar", "Jay", "Kangaroo", "Kestrel",
	"Kitten", "Kiwi", "Lark", "Lemur", "Leopard", "Lizard", "Llama", "Lobster", "Macaw",
	"Magpie", "Mammoth", "Manatee", "Mantis", "Marlin", "Meerkat", "Mink", "Mole", "Moose",
	"Moth", "Mouse", "Mule", "Narwhal", "Newt", "Ocelot", "Octopus", "Orca", "Oriole",
	"Osprey", "Ostrich", "Panther", "Parrot", "Pelican", "Penguin", "Pheasant", "Pigeon",
	"Puffin", "Puma", "Quail", "Rabbit", "Raccoon", "Ram", "Rhino", "Robin", "Salmon",
	"Seal", "Shark", "Sheep", "Shrimp", "Skunk", "Sloth", "Snail", "Sparrow", "Spider",
	"Squid", "Squirrel", "Stork", "Swan", "Tapir", "Toucan", "Turkey", "Turtle", "Viper",
	"Vulture", "Walrus", "Wasp", "Weasel", "Wombat", "Yak", "Zebra", "Comet", "Rocket",
	"Star", "Moon", "Planet", "Nebula", "Meteor", "Galaxy", "Cloud", "River", "Mountain",
	"Forest", "Canyon", "Glacier", "Island", "Ocean", "Thunder", "Breeze", "Ember", "Flame",
	"Spark", "Pebble", "Boulder", "Maple", "Oak", "Willow", "Cedar", "Pine", "Birch",
	"Acorn", "Clover", "Fern", "Lotus", "Orchid", "Tulip", "Daisy", "Poppy", "Cactus",
}
