package pipeline

// Prompt templates for the three generation paths. The context block and the
// question are interpolated with fmt.Sprintf.

const plainAnswerTemplate = `Use the following pieces of context to answer the question at the end.
If you don't know the answer, just say that you don't know, don't try to make up an answer.
Let's think step by step.
Always say "thanks for asking!" at the end of the answer.
%s

Question: %s

Helpful Answer:`

const processChainTemplate = `Answer the question in the end and generate a detailed process chain if necessary from the given context.
Provide the process chain in points and ensure each step is clearly and concisely described.
Use relevant technical terms and specify any important details.

**Instructions:**
1. Read the context carefully.
2. Identify all the key steps involved in the electric motor manufacturing process.
3. Break down the process into sequential points.
4. Include any necessary sub-steps or details that are crucial to understanding the process.
5. Make sure the steps are ordered logically from start to finish.
6. Keep the headings in bold.

**Example Context:**
The context is related to the manufacturing process of electric motors, starting from the raw material procurement to the final assembly and testing of the motor. It involves steps such as winding of the stator, rotor assembly, insulation testing, and final quality checks.

**Example Process Chain:**

1. **Raw Material Procurement**
- Source high-quality copper wire for winding.
- Procure steel for the stator and rotor laminations.

2. **Stator Winding**
- Cut and shape the steel laminations for the stator.
- Wind the copper wire around the stator laminations to form the stator coils.

3. **Rotor Assembly**
- Cut and shape the steel laminations for the rotor.
- Assemble the rotor core and attach the shaft.

4. **Insulation and Impregnation**
- Insulate the stator coils with varnish.
- Perform vacuum pressure impregnation to ensure durability.

5. **Assembly**
- Insert the rotor into the stator.
- Assemble additional components such as bearings and end shields.

6. **Electrical Testing**
- Conduct insulation resistance tests.
- Perform high-voltage tests to ensure no short circuits.

7. **Performance Testing**
- Test the motor under load conditions to ensure proper operation.
- Measure parameters like torque, speed, and efficiency.

8. **Final Quality Checks**
- Inspect the motor for any physical defects.
- Perform a final run test to ensure all specifications are met.

**Context:**
%s

Question: %s`

const weightedSourcesTemplate = `Format the following sources with the given similarity score, weighted score, filename,
context, and metadata in short. Restrict the context section to the first two lines only.
Add relevant emojis where necessary:

%s

Write the headings in bold. For example:

**Source 1**
- **Similarity Score**: 0.92
- **Weighted Score**: 0.85
- **Filename**: research_paper_2024.pdf
- **Metadata**: This paper was published in the Journal of Advanced Computing in 2024.
- **Context**: This paper explores advanced machine learning techniques for predictive analytics in healthcare.`

const similaritySourcesTemplate = `Format the following sources with the given similarity score,
filename, context, and metadata in short. Restrict the context section
to the first two lines only. Add relevant emojis where necessary:

%s

Write the headings in bold. For example:

**Source 1**
- **Similarity Score**: 0.92
- **Filename**: research_paper_2024.pdf
- **Metadata**: This paper was published in the Journal of Advanced Computing in 2024.
- **Context**: This paper explores advanced machine learning techniques for predictive analytics in healthcare.`
