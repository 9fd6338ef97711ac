// Package gallery picks a stable cover image for a restaurant.
package gallery

import (
	"errors"
	"unicode/utf16"
)

// ErrNoSeed is returned when neither an id nor a name is available.
var ErrNoSeed = errors.New("image seed requires a restaurant id or name")

const imageParams = "?auto=compress&cs=tinysrgb&w=600"

// Images is the fixed gallery. Order matters: indexes are part of the contract.
var Images = []string{
	"https://images.pexels.com/photos/70497/pexels-photo-70497.jpeg" + imageParams,
	"https://images.pexels.com/photos/461198/pexels-photo-461198.jpeg" + imageParams,
	"https://images.pexels.com/photos/1640777/pexels-photo-1640777.jpeg" + imageParams,
	"https://images.pexels.com/photos/958545/pexels-photo-958545.jpeg" + imageParams,
	"https://images.pexels.com/photos/109274/pexels-photo-109274.jpeg" + imageParams,
	"https://images.pexels.com/photos/1639561/pexels-photo-1639561.jpeg" + imageParams,
	"https://images.pexels.com/photos/277253/pexels-photo-277253.jpeg" + imageParams,
	"https://images.pexels.com/photos/616353/pexels-photo-616353.jpeg" + imageParams,
	"https://images.pexels.com/photos/675951/pexels-photo-675951.jpeg" + imageParams,
	"https://images.pexels.com/photos/1624487/pexels-photo-1624487.jpeg" + imageParams,
	"https://images.pexels.com/photos/262978/pexels-photo-262978.jpeg" + imageParams,
	"https://images.pexels.com/photos/260922/pexels-photo-260922.jpeg" + imageParams,
	"https://images.pexels.com/photos/941861/pexels-photo-941861.jpeg" + imageParams,
	"https://images.pexels.com/photos/1128678/pexels-photo-1128678.jpeg" + imageParams,
	"https://images.pexels.com/photos/245535/pexels-photo-245535.jpeg" + imageParams,
	"https://images.pexels.com/photos/6267/menu-restaurant.jpg" + imageParams,
}

// Hash is the 31-multiplier string hash over UTF-16 code units with 32-bit
// signed wraparound.
func Hash(seed string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(seed)) {
		h = h*31 + int32(c)
	}
	return h
}

// Index maps a seed onto [0, n).
func Index(seed string, n int) int {
	h := int64(Hash(seed))
	if h < 0 {
		h = -h
	}
	return int(h % int64(n))
}

// SelectImage returns the gallery image for a restaurant. The id is the seed;
// name is used only when id is empty.
func SelectImage(id, name string) (string, error) {
	seed := id
	if seed == "" {
		seed = name
	}
	if seed == "" {
		return "", ErrNoSeed
	}
	return Images[Index(seed, len(Images))], nil
}
