package whatsapp

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParsePayload", func() {
	var (
		body    string
		inbound *InboundMessage
		err     error
	)

	JustBeforeEach(func() {
		inbound, err = ParsePayload([]byte(body))
	})

	When("the payload carries an image message", func() {
		BeforeEach(func() {
			body = `{
				"entry": [{
					"changes": [{
						"value": {
							"messages": [{
								"from": "51987654321",
								"type": "image",
								"image": {"id": "media-123", "caption": "mi pago"}
							}]
						}
					}]
				}]
			}`
		})

		It("extracts the phone, media ID and caption", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(inbound.Phone).To(Equal("51987654321"))
			Expect(inbound.Type).To(Equal(MessageTypeImage))
			Expect(inbound.MediaID).To(Equal("media-123"))
			Expect(inbound.Caption).To(Equal("mi pago"))
		})
	})

	When("the payload carries a text message", func() {
		BeforeEach(func() {
			body = `{
				"entry": [{
					"changes": [{
						"value": {
							"messages": [{
								"from": "51987654321",
								"type": "text",
								"text": {"body": "hola"}
							}]
						}
					}]
				}]
			}`
		})

		It("extracts the text body", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(inbound.Type).To(Equal(MessageTypeText))
			Expect(inbound.Text).To(Equal("hola"))
		})
	})

	When("the payload is a status update with no messages", func() {
		BeforeEach(func() {
			body = `{
				"entry": [{
					"changes": [{
						"value": {"statuses": [{"status": "delivered"}]}
					}]
				}]
			}`
		})

		It("returns nothing without error", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(inbound).To(BeNil())
		})
	})

	When("the payload has an unsupported message type", func() {
		BeforeEach(func() {
			body = `{
				"entry": [{
					"changes": [{
						"value": {
							"messages": [{"from": "51987654321", "type": "audio"}]
						}
					}]
				}]
			}`
		})

		It("still reports the phone and type", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(inbound.Phone).To(Equal("51987654321"))
			Expect(inbound.Type).To(Equal("audio"))
		})
	})

	When("the payload is not JSON", func() {
		BeforeEach(func() {
			body = `not json`
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("VerifySubscription", func() {
	It("echoes the challenge when the mode and token match", func() {
		challenge, ok := VerifySubscription("subscribe", "secret", "12345", "secret")
		Expect(ok).To(BeTrue())
		Expect(challenge).To(Equal("12345"))
	})

	It("rejects a wrong token", func() {
		_, ok := VerifySubscription("subscribe", "wrong", "12345", "secret")
		Expect(ok).To(BeFalse())
	})

	It("rejects a wrong mode", func() {
		_, ok := VerifySubscription("unsubscribe", "secret", "12345", "secret")
		Expect(ok).To(BeFalse())
	})
})
