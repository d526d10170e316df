package model_test

import (
	"encoding/json"
	"testing"

	model "github.com/okian/sportiq/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestNewEvent(t *testing.T) {
	convey.Convey("Given a topic and a payload", t, func() {
		payload := model.Payload{"user_id": "u1"}

		convey.Convey("When creating a new event", func() {
			a := model.NewEvent(model.TopicFanInteraction, payload)
			b := model.NewEvent(model.TopicFanInteraction, payload)

			convey.Convey("Then it should carry a unique id and a timestamp", func() {
				convey.So(a.ID, convey.ShouldNotBeEmpty)
				convey.So(a.ID, convey.ShouldNotEqual, b.ID)
				convey.So(a.TS.IsZero(), convey.ShouldBeFalse)
				convey.So(a.Topic, convey.ShouldEqual, model.TopicFanInteraction)
				convey.So(a.Payload.String("user_id"), convey.ShouldEqual, "u1")
			})
		})

		convey.Convey("When the payload is nil", func() {
			e := model.NewEvent(model.TopicContentNew, nil)

			convey.Convey("Then an empty payload should be used", func() {
				convey.So(e.Payload, convey.ShouldNotBeNil)
				convey.So(e.Payload.String("missing"), convey.ShouldEqual, "")
			})
		})
	})
}

func TestPayloadAccessors(t *testing.T) {
	convey.Convey("Given a payload decoded from JSON", t, func() {
		var p model.Payload
		err := json.Unmarshal([]byte(`{"tags":["Football"," NBA ",3],"amount":12.5,"category":"sport"}`), &p)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then string lists should skip non-string elements", func() {
			convey.So(p.Strings("tags"), convey.ShouldResemble, []string{"Football", " NBA "})
		})

		convey.Convey("And numbers should read as float64", func() {
			v, ok := p.Float("amount")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(v, convey.ShouldEqual, 12.5)
		})

		convey.Convey("And a lone string should read as a one-element list", func() {
			convey.So(p.Strings("category"), convey.ShouldResemble, []string{"sport"})
		})
	})

	convey.Convey("Given a payload built in-process", t, func() {
		p := model.Payload{"tags": []string{"a", "b"}, "amount": 7}

		convey.Convey("Then typed values should pass through", func() {
			convey.So(p.Strings("tags"), convey.ShouldResemble, []string{"a", "b"})
			v, ok := p.Float("amount")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(v, convey.ShouldEqual, 7)
			_, ok = p.Float("tags")
			convey.So(ok, convey.ShouldBeFalse)
		})
	})
}

func TestInteractionType(t *testing.T) {
	convey.Convey("Given the interaction types", t, func() {
		convey.Convey("Then known types should be valid", func() {
			for _, k := range model.InteractionTypes {
				convey.So(k.Valid(), convey.ShouldBeTrue)
			}
		})

		convey.Convey("And unknown types should not", func() {
			convey.So(model.InteractionType("like").Valid(), convey.ShouldBeFalse)
			convey.So(model.InteractionType("").Valid(), convey.ShouldBeFalse)
		})
	})
}
