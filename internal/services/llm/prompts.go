package llm

// DetectObjectsPrompt asks for object labels in a fixed JSON shape.
const DetectObjectsPrompt = `You label photographs for a personal media library.
Return JSON only, in the form {"tags": ["label", ...]}.
Use short lowercase nouns for each distinct kind of object, person, or animal you can see.
Return {"tags": []} when nothing recognisable is visible.`
