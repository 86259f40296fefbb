package analyzer

const systemPrompt = `You are a vision assistant that classifies the ripeness of bananas in photos.
Always answer with a single JSON object and nothing else.`

const userPrompt = `Count every banana visible in the image and classify each one as exactly one of:
- unripe: mostly green peel
- ripe: yellow peel, at most a few small brown specks
- overripe: large brown or black areas on the peel

Respond with JSON of this exact shape:
{"total_count": <int>, "unripe_count": <int>, "ripe_count": <int>, "overripe_count": <int>, "detailed_analysis": "<one or two sentences>"}

total_count must equal unripe_count + ripe_count + overripe_count. If there are no bananas, all counts are 0.`
