package conduit

import (
	"github.com/conduit-qa/conduit-test-harness/framework/apitest"
	"github.com/conduit-qa/conduit-test-harness/framework/expect"
	"github.com/conduit-qa/conduit-test-harness/framework/schema"
)

func doTagsTests(t *apitest.T) {
	t.Run("GET tags", func(t *apitest.T) {
		f := PublicAPI(t)
		body := f.API.Path(EndpointTags).Get(t)

		tags := expect.MatchSchemaAs[TagsResponse](f.Expect, body, schema.TagsGET)
		f.That(body.Get("tags").GetByIndex(0)).ShouldBeEqual("Test")
		f.That(len(tags.Tags)).ShouldBeLessThanOrEqual(maxTagsInResponse)
	})
}
