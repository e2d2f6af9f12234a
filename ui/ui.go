package ui

// Indicator shows whether the jukebox is awake.
type Indicator interface {
	Awake()
	Asleep()
	Off()
}
