package renderer

const vertexShader = `#version 410 core

layout (location = 0) in vec3 aPosition;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec2 aUV;

uniform mat4 uModel;
uniform mat4 uView;
uniform mat4 uProjection;
uniform mat3 uNormalMatrix;
uniform vec2 uUVOffset;
uniform vec2 uUVRepeat;

out vec3 vNormal;
out vec2 vUV;

void main() {
    vNormal = normalize(uNormalMatrix * aNormal);
    vUV = uUVOffset + aUV * uUVRepeat;
    gl_Position = uProjection * uView * uModel * vec4(aPosition, 1.0);
}
`

const fragmentShader = `#version 410 core

in vec3 vNormal;
in vec2 vUV;

uniform sampler2D uTexture;
uniform bool uHasTexture;
uniform vec3 uColor;
uniform vec3 uEmissive;
uniform float uOpacity;
uniform float uDesaturate;

uniform vec3 uAmbient;
uniform int uLightCount;
uniform vec3 uLightDir[4];
uniform vec3 uLightColor[4];

out vec4 FragColor;

void main() {
    vec4 base = vec4(uColor, 1.0);
    if (uHasTexture) {
        base *= texture(uTexture, vUV);
    }

    vec3 n = normalize(vNormal);
    vec3 light = uAmbient;
    for (int i = 0; i < uLightCount; i++) {
        light += uLightColor[i] * max(dot(n, -uLightDir[i]), 0.0);
    }

    vec3 rgb = base.rgb * light + uEmissive;
    float gray = dot(rgb, vec3(0.299, 0.587, 0.114));
    rgb = mix(rgb, vec3(gray), uDesaturate);

    FragColor = vec4(rgb, base.a * uOpacity);
}
`
