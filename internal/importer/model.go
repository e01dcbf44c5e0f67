package importer

import (
	"spritebridge/internal/bbox"
	"spritebridge/internal/yyp"
)

// ResourceRef is the {name, path} pair the engine uses for cross references.
type ResourceRef struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Sprite mirrors the GMSprite .yy record. Field order matches what the IDE
// writes so regenerated files diff cleanly.
type Sprite struct {
	Tag                string        `json:"$GMSprite"`
	NameField          string        `json:"%Name"`
	BBoxMode           int           `json:"bboxMode"`
	BBoxBottom         int           `json:"bbox_bottom"`
	BBoxLeft           int           `json:"bbox_left"`
	BBoxRight          int           `json:"bbox_right"`
	BBoxTop            int           `json:"bbox_top"`
	CollisionKind      int           `json:"collisionKind"`
	CollisionTolerance int           `json:"collisionTolerance"`
	DynamicTexturePage bool          `json:"DynamicTexturePage"`
	EdgeFiltering      bool          `json:"edgeFiltering"`
	For3D              bool          `json:"For3D"`
	Frames             []SpriteFrame `json:"frames"`
	GridX              int           `json:"gridX"`
	GridY              int           `json:"gridY"`
	Height             int           `json:"height"`
	HTile              bool          `json:"HTile"`
	Layers             []ImageLayer  `json:"layers"`
	Name               string        `json:"name"`
	NineSlice          any           `json:"nineSlice"`
	Origin             int           `json:"origin"`
	Parent             ResourceRef   `json:"parent"`
	PreMultiplyAlpha   bool          `json:"preMultiplyAlpha"`
	ResourceType       string        `json:"resourceType"`
	ResourceVersion    string        `json:"resourceVersion"`
	Sequence           Sequence      `json:"sequence"`
	SwatchColours      any           `json:"swatchColours"`
	SwfPrecision       float64       `json:"swfPrecision"`
	TextureGroupID     ResourceRef   `json:"textureGroupId"`
	Type               int           `json:"type"`
	VTile              bool          `json:"VTile"`
	Width              int           `json:"width"`
}

// SpriteFrame names one frame image by its id.
type SpriteFrame struct {
	Tag             string `json:"$GMSpriteFrame"`
	NameField       string `json:"%Name"`
	Name            string `json:"name"`
	ResourceType    string `json:"resourceType"`
	ResourceVersion string `json:"resourceVersion"`
}

// ImageLayer is the single visual layer every frame shares.
type ImageLayer struct {
	Tag             string  `json:"$GMImageLayer"`
	NameField       string  `json:"%Name"`
	BlendMode       int     `json:"blendMode"`
	DisplayName     string  `json:"displayName"`
	IsLocked        bool    `json:"isLocked"`
	Name            string  `json:"name"`
	Opacity         float64 `json:"opacity"`
	ResourceType    string  `json:"resourceType"`
	ResourceVersion string  `json:"resourceVersion"`
	Visible         bool    `json:"visible"`
}

// Sequence is the sprite's timeline.
type Sequence struct {
	Tag                  string         `json:"$GMSequence"`
	NameField            string         `json:"%Name"`
	AutoRecord           bool           `json:"autoRecord"`
	BackdropHeight       int            `json:"backdropHeight"`
	BackdropImageOpacity float64        `json:"backdropImageOpacity"`
	BackdropImagePath    string         `json:"backdropImagePath"`
	BackdropWidth        int            `json:"backdropWidth"`
	BackdropXOffset      float64        `json:"backdropXOffset"`
	BackdropYOffset      float64        `json:"backdropYOffset"`
	Events               KeyframeStore  `json:"events"`
	EventStubScript      any            `json:"eventStubScript"`
	EventToFunction      map[string]any `json:"eventToFunction"`
	Length               float64        `json:"length"`
	LockOrigin           bool           `json:"lockOrigin"`
	Moments              KeyframeStore  `json:"moments"`
	Name                 string         `json:"name"`
	Parent               ResourceRef    `json:"parent"`
	Playback             int            `json:"playback"`
	PlaybackSpeed        float64        `json:"playbackSpeed"`
	PlaybackSpeedType    int            `json:"playbackSpeedType"`
	ResourceType         string         `json:"resourceType"`
	ResourceVersion      string         `json:"resourceVersion"`
	SeqHeight            float64        `json:"seqHeight"`
	SeqWidth             float64        `json:"seqWidth"`
	ShowBackdrop         bool           `json:"showBackdrop"`
	ShowBackdropImage    bool           `json:"showBackdropImage"`
	TimeUnits            int            `json:"timeUnits"`
	Tracks               []FramesTrack  `json:"tracks"`
	VisibleRange         any            `json:"visibleRange"`
	Volume               float64        `json:"volume"`
	XOrigin              int            `json:"xorigin"`
	YOrigin              int            `json:"yorigin"`
}

// KeyframeStore is an empty events or moments store. The engine keys it by a
// "$KeyframeStore<Kind>" tag, so it marshals through an ordered node.
type KeyframeStore struct {
	Kind string
}

func (k KeyframeStore) MarshalJSON() ([]byte, error) {
	return yyp.NewObject(
		yyp.Field("$KeyframeStore<"+k.Kind+">", yyp.NewString("")),
		yyp.Field("Keyframes", yyp.NewArray()),
		yyp.Field("resourceType", yyp.NewString("KeyframeStore<"+k.Kind+">")),
		yyp.Field("resourceVersion", yyp.NewString("1.0")),
	).Marshal()
}

// FramesTrack is the "frames" track that places each frame on the timeline.
type FramesTrack struct {
	Tag                 string             `json:"$GMSpriteFramesTrack"`
	NameField           string             `json:"%Name"`
	BuiltinName         int                `json:"builtinName"`
	Events              []any              `json:"events"`
	InheritsTrackColour bool               `json:"inheritsTrackColour"`
	Interpolation       int                `json:"interpolation"`
	IsCreationTrack     bool               `json:"isCreationTrack"`
	Keyframes           FrameKeyframeStore `json:"keyframes"`
	Modifiers           []any              `json:"modifiers"`
	Name                string             `json:"name"`
	ResourceType        string             `json:"resourceType"`
	ResourceVersion     string             `json:"resourceVersion"`
	SpriteID            any                `json:"spriteId"`
	TrackColour         int                `json:"trackColour"`
	Tracks              []any              `json:"tracks"`
	Traits              int                `json:"traits"`
}

// FrameKeyframeStore holds one keyframe per frame.
type FrameKeyframeStore struct {
	Tag             string          `json:"$KeyframeStore<SpriteFrameKeyframe>"`
	Keyframes       []FrameKeyframe `json:"Keyframes"`
	ResourceType    string          `json:"resourceType"`
	ResourceVersion string          `json:"resourceVersion"`
}

// FrameKeyframe shows one frame for Length time units starting at Key.
type FrameKeyframe struct {
	Tag             string           `json:"$Keyframe<SpriteFrameKeyframe>"`
	Channels        KeyframeChannels `json:"Channels"`
	Disabled        bool             `json:"Disabled"`
	ID              string           `json:"id"`
	IsCreationKey   bool             `json:"IsCreationKey"`
	Key             float64          `json:"Key"`
	Length          float64          `json:"Length"`
	ResourceType    string           `json:"resourceType"`
	ResourceVersion string           `json:"resourceVersion"`
	Stretch         bool             `json:"Stretch"`
}

// KeyframeChannels holds channel "0", the only channel a sprite track uses.
type KeyframeChannels struct {
	Zero FrameChannel `json:"0"`
}

// FrameChannel points a keyframe at a frame id.
type FrameChannel struct {
	Tag             string      `json:"$SpriteFrameKeyframe"`
	ID              ResourceRef `json:"Id"`
	ResourceType    string      `json:"resourceType"`
	ResourceVersion string      `json:"resourceVersion"`
}

// spriteSpec is everything newSprite needs that is not a fixed default.
type spriteSpec struct {
	name     string
	width    int
	height   int
	frameIDs []string
	layerID  string
	keyIDs   []string
	parent   ResourceRef
	box      bbox.Box
}

func newSprite(s spriteSpec) Sprite {
	selfPath := "sprites/" + s.name + "/" + s.name + ".yy"
	self := ResourceRef{Name: s.name, Path: selfPath}

	frames := make([]SpriteFrame, len(s.frameIDs))
	keyframes := make([]FrameKeyframe, len(s.frameIDs))
	for i, id := range s.frameIDs {
		frames[i] = SpriteFrame{
			NameField:       id,
			Name:            id,
			ResourceType:    "GMSpriteFrame",
			ResourceVersion: "2.0",
		}
		keyframes[i] = FrameKeyframe{
			Channels: KeyframeChannels{Zero: FrameChannel{
				ID:              ResourceRef{Name: id, Path: selfPath},
				ResourceType:    "SpriteFrameKeyframe",
				ResourceVersion: "2.0",
			}},
			ID:              s.keyIDs[i],
			Key:             float64(i),
			Length:          1,
			ResourceType:    "Keyframe<SpriteFrameKeyframe>",
			ResourceVersion: "2.0",
		}
	}

	return Sprite{
		NameField:     s.name,
		BBoxMode:      0,
		BBoxBottom:    s.box.Bottom,
		BBoxLeft:      s.box.Left,
		BBoxRight:     s.box.Right,
		BBoxTop:       s.box.Top,
		CollisionKind: 1,
		Frames:        frames,
		Height:        s.height,
		Layers: []ImageLayer{{
			NameField:       s.layerID,
			DisplayName:     "default",
			Name:            s.layerID,
			Opacity:         100,
			ResourceType:    "GMImageLayer",
			ResourceVersion: "2.0",
			Visible:         true,
		}},
		Name:            s.name,
		Parent:          s.parent,
		ResourceType:    "GMSprite",
		ResourceVersion: "2.0",
		Sequence: Sequence{
			NameField:            s.name,
			AutoRecord:           true,
			BackdropHeight:       768,
			BackdropImageOpacity: 0.5,
			BackdropWidth:        1366,
			Events:               KeyframeStore{Kind: "MessageEventKeyframe"},
			EventToFunction:      map[string]any{},
			Length:               float64(len(s.frameIDs)),
			Moments:              KeyframeStore{Kind: "MomentsEventKeyframe"},
			Name:                 s.name,
			Parent:               self,
			Playback:             1,
			PlaybackSpeed:        30,
			ResourceType:         "GMSequence",
			ResourceVersion:      "2.0",
			SeqHeight:            float64(s.height),
			SeqWidth:             float64(s.width),
			ShowBackdrop:         true,
			TimeUnits:            1,
			Tracks: []FramesTrack{{
				Events:              []any{},
				InheritsTrackColour: true,
				Interpolation:       1,
				Keyframes: FrameKeyframeStore{
					Keyframes:       keyframes,
					ResourceType:    "KeyframeStore<SpriteFrameKeyframe>",
					ResourceVersion: "1.0",
				},
				Modifiers:       []any{},
				Name:            "frames",
				NameField:       "frames",
				ResourceType:    "GMSpriteFramesTrack",
				ResourceVersion: "2.0",
				Tracks:          []any{},
			}},
			Volume: 1,
		},
		SwfPrecision:   2.525,
		TextureGroupID: ResourceRef{Name: "Default", Path: "texturegroups/Default"},
		Width:          s.width,
	}
}
